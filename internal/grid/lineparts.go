package grid

// Edge is the state of one room column at a row boundary.
type Edge struct {
	Start   bool // a slot starts at this boundary
	End     bool // a slot ends at this boundary
	Running bool // a slot continues through this boundary
}

func (e Edge) border() bool {
	return e.Start || e.End
}

// box maps the (up, down, left, right) segments meeting at a border junction
// to a box-drawing character.
var box = map[[4]bool]string{
	{false, true, false, true}: "┌",
	{false, true, true, false}: "┐",
	{true, false, false, true}: "└",
	{true, false, true, false}: "┘",
	{true, true, false, true}:  "├",
	{true, true, true, false}:  "┤",
	{false, true, true, true}:  "┬",
	{true, false, true, true}:  "┴",
	{true, true, true, true}:   "┼",
}

// GetLineParts returns the junction character between the left and right
// columns at one boundary. Precedence, highest first:
//
//  1. one side running while the other starts or ends: a tee pointing away
//     from the running side
//  2. starts or ends without a running side: corner, tee or cross
//  3. both sides running: a vertical bar
//  4. otherwise fill
func GetLineParts(left, right Edge, fill string) string {
	switch {
	case left.Running && right.border():
		return "├"
	case right.Running && left.border():
		return "┤"
	case left.border() || right.border():
		// Starts open the border downwards, ends close it from above.
		up := left.End || right.End
		down := left.Start || right.Start
		return box[[4]bool{up, down, left.border(), right.border()}]
	case left.Running || right.Running:
		return "│"
	default:
		return fill
	}
}
