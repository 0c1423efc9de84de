package physics

// CushionLine represents a cushion wall segment with precomputed collision surfaces.
type CushionLine struct {
	Name      string `json:"name"`
	P1        Vec2   `json:"p1"`
	P2        Vec2   `json:"p2"`
	P3        Vec2   `json:"p3"` // offset by ballRadius * normal (primary collision line)
	P4        Vec2   `json:"p4"`
	P5        Vec2   `json:"p5"` // offset by 0.8 * ballRadius * normal (fallback)
	P6        Vec2   `json:"p6"`
	Direction Vec2   `json:"direction"` // normalized direction from p1 to p2
	Normal    Vec2   `json:"normal"`    // left normal of direction
}

// Vertex represents a corner point where cushions meet.
type Vertex struct {
	Name     string `json:"name"`
	Position Vec2   `json:"position"`
}

// Pocket represents one pocket on the table.
type Pocket struct {
	ID       int  `json:"id"`
	Position Vec2 `json:"position"`
}

// PocketLayout selects which pockets a table is cut with.
type PocketLayout string

const (
	PocketsSix     PocketLayout = "six"
	PocketsCorners PocketLayout = "corners"
)

// TableSpec describes a physical table. It is the geometry handle a level
// carries; every call to NewTable builds a fresh, unshared instance.
type TableSpec struct {
	Name    string       `json:"name" yaml:"name"`
	Scale   float64      `json:"scale" yaml:"scale"`
	Pockets PocketLayout `json:"pockets" yaml:"pockets"`
}

// Table holds the complete collider geometry of one table instance.
type Table struct {
	Spec     TableSpec
	Lines    []CushionLine
	Vertices []Vertex
	Pockets  []Pocket
}

// HalfExtents returns the playing surface half width and half height.
func (t *Table) HalfExtents() (float64, float64) {
	n := N * t.Spec.Scale
	return 50 * n, 25 * n
}

// NewStandardTable creates the full-size six pocket table.
func NewStandardTable() *Table {
	return NewTable(TableSpec{Name: "standard", Scale: 1, Pockets: PocketsSix})
}

// NewTable builds table colliders for spec. Scale multiplies the base unit;
// ball and pocket radii are not scaled.
func NewTable(spec TableSpec) *Table {
	if spec.Scale <= 0 {
		spec.Scale = 1
	}
	if spec.Pockets == "" {
		spec.Pockets = PocketsSix
	}

	n := N * spec.Scale
	pr := PocketRadius
	br := BallRadius

	pockets := []Pocket{
		{ID: 0, Position: NewVec2(-50*n-pr/2, -25*n-pr/4)},
		{ID: 2, Position: NewVec2(50*n+pr/2, -25*n-pr/4)},
		{ID: 3, Position: NewVec2(-50*n-pr/2, 25*n+pr/4)},
		{ID: 5, Position: NewVec2(50*n+pr/2, 25*n+pr/4)},
	}

	type rawLine struct {
		name   string
		p1, p2 Vec2
	}
	var rawLines []rawLine

	if spec.Pockets == PocketsSix {
		pockets = append(pockets,
			Pocket{ID: 1, Position: NewVec2(0, -25*n-pr)},
			Pocket{ID: 4, Position: NewVec2(0, 25*n+pr)},
		)
		rawLines = []rawLine{
			// Top-left corner to top-center
			{"AB", NewVec2(-50*n, -29*n), NewVec2(-46*n, -25*n)},
			{"BC", NewVec2(-46*n, -25*n), NewVec2(-4*n, -25*n)},
			{"CD", NewVec2(-4*n, -25*n), NewVec2(-2*n, -29*n)},
			// Top-center to top-right
			{"EF", NewVec2(2*n, -29*n), NewVec2(4*n, -25*n)},
			{"FG", NewVec2(4*n, -25*n), NewVec2(46*n, -25*n)},
			{"GH", NewVec2(46*n, -25*n), NewVec2(50*n, -29*n)},
			// Bottom-right to bottom-center
			{"MN", NewVec2(50*n, 29*n), NewVec2(46*n, 25*n)},
			{"NO", NewVec2(46*n, 25*n), NewVec2(4*n, 25*n)},
			{"OP", NewVec2(4*n, 25*n), NewVec2(2*n, 29*n)},
			// Bottom-center to bottom-left
			{"QR", NewVec2(-2*n, 29*n), NewVec2(-4*n, 25*n)},
			{"RS", NewVec2(-4*n, 25*n), NewVec2(-46*n, 25*n)},
			{"ST", NewVec2(-46*n, 25*n), NewVec2(-50*n, 29*n)},
		}
	} else {
		rawLines = []rawLine{
			{"AB", NewVec2(-50*n, -29*n), NewVec2(-46*n, -25*n)},
			{"BG", NewVec2(-46*n, -25*n), NewVec2(46*n, -25*n)},
			{"GH", NewVec2(46*n, -25*n), NewVec2(50*n, -29*n)},
			{"MN", NewVec2(50*n, 29*n), NewVec2(46*n, 25*n)},
			{"NS", NewVec2(46*n, 25*n), NewVec2(-46*n, 25*n)},
			{"ST", NewVec2(-46*n, 25*n), NewVec2(-50*n, 29*n)},
		}
	}

	rawLines = append(rawLines,
		// Right side
		rawLine{"IJ", NewVec2(54*n, -25*n), NewVec2(50*n, -21*n)},
		rawLine{"JK", NewVec2(50*n, -21*n), NewVec2(50*n, 21*n)},
		rawLine{"KL", NewVec2(50*n, 21*n), NewVec2(54*n, 25*n)},
		// Left side
		rawLine{"UV", NewVec2(-54*n, 25*n), NewVec2(-50*n, 21*n)},
		rawLine{"VW", NewVec2(-50*n, 21*n), NewVec2(-50*n, -21*n)},
		rawLine{"WX", NewVec2(-50*n, -21*n), NewVec2(-54*n, -25*n)},
	)

	lines := make([]CushionLine, len(rawLines))
	for i, rl := range rawLines {
		dir := rl.p2.Minus(rl.p1).Normalize()
		normal := dir.LeftNormal()
		offset1 := normal.Times(br)
		offset2 := normal.Times(0.8 * br)

		lines[i] = CushionLine{
			Name:      rl.name,
			P1:        rl.p1,
			P2:        rl.p2,
			Direction: dir,
			Normal:    normal,
			P3:        rl.p1.Plus(offset1),
			P4:        rl.p2.Plus(offset1),
			P5:        rl.p1.Plus(offset2),
			P6:        rl.p2.Plus(offset2),
		}
	}

	// Corners where an angled jaw meets a straight run
	vertices := []Vertex{
		{Name: "B", Position: NewVec2(-46*n, -25*n)},
		{Name: "G", Position: NewVec2(46*n, -25*n)},
		{Name: "J", Position: NewVec2(50*n, -21*n)},
		{Name: "K", Position: NewVec2(50*n, 21*n)},
		{Name: "N", Position: NewVec2(46*n, 25*n)},
		{Name: "S", Position: NewVec2(-46*n, 25*n)},
		{Name: "V", Position: NewVec2(-50*n, 21*n)},
		{Name: "W", Position: NewVec2(-50*n, -21*n)},
	}
	if spec.Pockets == PocketsSix {
		vertices = append(vertices,
			Vertex{Name: "C", Position: NewVec2(-4*n, -25*n)},
			Vertex{Name: "F", Position: NewVec2(4*n, -25*n)},
			Vertex{Name: "O", Position: NewVec2(4*n, 25*n)},
			Vertex{Name: "R", Position: NewVec2(-4*n, 25*n)},
		)
	}

	return &Table{
		Spec:     spec,
		Lines:    lines,
		Vertices: vertices,
		Pockets:  pockets,
	}
}
