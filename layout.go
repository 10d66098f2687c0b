package tuicore

// Direction is the primary axis a Flex splits its container along.
type Direction uint8

const (
	Horizontal Direction = iota
	Vertical
)

// ConstraintKind tags which sizing rule a Constraint applies.
type ConstraintKind uint8

const (
	ConstraintFixed ConstraintKind = iota
	ConstraintPercentage
	ConstraintMin
	ConstraintMax
	ConstraintRatio
	ConstraintFill
	ConstraintFitContent
	ConstraintFitContentBounded
	ConstraintFitMin
)

// Constraint is one child's sizing rule along the primary axis. Build one
// with the Fixed/Percentage/Min/Max/Ratio/Fill/FitContent* constructors
// rather than the zero value.
type Constraint struct {
	Kind ConstraintKind
	N    uint16 // Fixed value / Min floor / Max ceiling / FitContentBounded lower bound
	P    uint8  // Percentage, 0-100
	Num  uint16 // Ratio numerator
	Den  uint16 // Ratio denominator
	Hi   uint16 // FitContentBounded upper bound
}

func Fixed(n uint16) Constraint     { return Constraint{Kind: ConstraintFixed, N: n} }
func Percentage(p uint8) Constraint { return Constraint{Kind: ConstraintPercentage, P: p} }
func Min(n uint16) Constraint       { return Constraint{Kind: ConstraintMin, N: n} }
func Max(n uint16) Constraint       { return Constraint{Kind: ConstraintMax, N: n} }
func Fill() Constraint              { return Constraint{Kind: ConstraintFill} }
func FitContent() Constraint        { return Constraint{Kind: ConstraintFitContent} }
func FitMin() Constraint            { return Constraint{Kind: ConstraintFitMin} }

// Ratio is a FIXED fraction num/den of the container, NOT a flexible
// weight: Percentage(25) and Ratio(1,4) of the same container produce
// identical sizes, and mixing Ratio(1,4) with Fill gives the Ratio
// constraint exactly 1/4 of the container with Fill taking the rest,
// never a 1:1 split with Fill.
func Ratio(num, den uint16) Constraint {
	return Constraint{Kind: ConstraintRatio, Num: num, Den: den}
}

// FitContentBounded derives its size from the paired LayoutSizeHint's
// preferred value, clamped to [min, max].
func FitContentBounded(min, max uint16) Constraint {
	return Constraint{Kind: ConstraintFitContentBounded, N: min, Hi: max}
}

// LayoutSizeHint is supplied by widgets for content-fitting constraints.
// Max is optional (nil means unbounded).
type LayoutSizeHint struct {
	Min       uint16
	Preferred uint16
	Max       *uint16
}

// Flex specifies a direction plus an ordered list of child constraints.
type Flex struct {
	Direction   Direction
	Constraints []Constraint
}

const maxSolveIterations = 16

// Solve splits area along direction into one Rect per constraint,
// satisfying the constraint list. hints is optionally supplied,
// index-aligned with constraints, for the FitContent* variants; a nil or
// short hints slice treats missing entries as the zero LayoutSizeHint.
//
// The same (area, direction, constraints, hints) always produces the
// same Rects: slack distribution, clamping and rounding are all
// deterministic, with no dependence on call site or prior calls.
func Solve(area Rect, direction Direction, constraints []Constraint, hints []LayoutSizeHint) []Rect {
	n := len(constraints)
	rects := make([]Rect, n)
	if n == 0 {
		return rects
	}
	if area.Empty() {
		for i := range rects {
			rects[i] = Rect{X: area.X, Y: area.Y}
		}
		return rects
	}

	available := int(area.Width)
	if direction == Vertical {
		available = int(area.Height)
	}

	desired := make([]int, n)
	flexWeight := make([]int, n)
	isMax := make([]bool, n)
	maxCeil := make([]int, n)

	hintAt := func(i int) LayoutSizeHint {
		if i < len(hints) {
			return hints[i]
		}
		return LayoutSizeHint{}
	}

	for i, c := range constraints {
		switch c.Kind {
		case ConstraintFixed:
			desired[i] = int(c.N)
		case ConstraintPercentage:
			desired[i] = roundDiv(int(c.P)*available, 100)
		case ConstraintRatio:
			desired[i] = roundDiv(int(c.Num)*available, int(maxU16(c.Den, 1)))
		case ConstraintMin:
			desired[i] = int(c.N)
		case ConstraintMax:
			desired[i] = 0
			flexWeight[i] = int(c.N)
			isMax[i] = true
			maxCeil[i] = int(c.N)
		case ConstraintFill:
			desired[i] = 0
			flexWeight[i] = 1
		case ConstraintFitContent:
			h := hintAt(i)
			desired[i] = clampFitContent(int(h.Preferred), int(h.Min), h.Max)
		case ConstraintFitContentBounded:
			h := hintAt(i)
			desired[i] = clampInt(int(h.Preferred), int(c.N), int(c.Hi))
		case ConstraintFitMin:
			desired[i] = int(hintAt(i).Min)
		}
	}

	active := make([]int, 0, n)
	for i := range constraints {
		if flexWeight[i] > 0 {
			active = append(active, i)
		}
	}

	for iter := 0; iter < maxSolveIterations && len(active) > 0; iter++ {
		sum := 0
		for _, d := range desired {
			sum += d
		}
		slack := available - sum
		if slack <= 0 {
			break
		}
		totalWeight := 0
		for _, i := range active {
			totalWeight += flexWeight[i]
		}
		if totalWeight == 0 {
			break
		}

		clamped := false
		remainingSlack := slack
		nextActive := active[:0:0]
		for idx, i := range active {
			var share int
			if idx == len(active)-1 {
				share = remainingSlack
			} else {
				share = slack * flexWeight[i] / totalWeight
			}
			remainingSlack -= share
			desired[i] += share
			if isMax[i] && desired[i] > maxCeil[i] {
				desired[i] = maxCeil[i]
				clamped = true
				continue
			}
			nextActive = append(nextActive, i)
		}
		active = nextActive
		if !clamped {
			break
		}
	}

	reconcileSum(desired, available, flexWeight, isMax, maxCeil)

	for i := range desired {
		if desired[i] < 0 {
			desired[i] = 0
		}
	}

	pos := 0
	for i, d := range desired {
		if direction == Horizontal {
			rects[i] = Rect{
				X:      area.X + uint16(pos),
				Y:      area.Y,
				Width:  uint16(d),
				Height: area.Height,
			}
		} else {
			rects[i] = Rect{
				X:      area.X,
				Y:      area.Y + uint16(pos),
				Width:  area.Width,
				Height: uint16(d),
			}
		}
		pos += d
	}
	return rects
}

// reconcileSum assigns any remaining (or excess) pixel to the earliest
// under-allocated (or over-allocated) flexible child so that Σsizes ==
// available exactly, regardless of intermediate rounding.
//
// Only constraints that actually participate in absorbing slack (Fill,
// Max) are eligible to receive the residue. A constraint list with no
// such flexible entry (e.g. a lone Ratio) is left exactly as computed
// even if that leaves container space unclaimed: Ratio/Percentage/Fixed
// each own their own fixed share and never grow to fill space nobody
// asked them to take, so Ratio(1,4) alone over a 100-wide container
// yields width 25, not 100.
func reconcileSum(desired []int, available int, flexWeight []int, isMax []bool, maxCeil []int) {
	hasFlex := false
	for _, w := range flexWeight {
		if w > 0 {
			hasFlex = true
			break
		}
	}
	if !hasFlex {
		return
	}

	sum := 0
	for _, d := range desired {
		sum += d
	}
	diff := available - sum
	if diff == 0 {
		return
	}

	step := 1
	if diff < 0 {
		step = -1
	}
	for diff != 0 {
		placed := false
		for i := range desired {
			if flexWeight[i] == 0 {
				continue
			}
			if step > 0 && isMax[i] && desired[i] >= maxCeil[i] {
				continue
			}
			if step < 0 && desired[i] <= 0 {
				continue
			}
			desired[i] += step
			diff -= step
			placed = true
			break
		}
		if !placed {
			break
		}
	}
}

func clampFitContent(pref, min int, max *uint16) int {
	if pref < min {
		pref = min
	}
	if max != nil && pref > int(*max) {
		pref = int(*max)
	}
	return pref
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

func maxU16(a, b uint16) uint16 {
	if a > b {
		return a
	}
	return b
}

// roundDiv performs round-half-up integer division, deterministic and
// independent of call site: the same (num, den) always rounds the same
// way.
func roundDiv(num, den int) int {
	if den == 0 {
		return 0
	}
	neg := false
	if num < 0 {
		neg = true
		num = -num
	}
	if den < 0 {
		den = -den
		neg = !neg
	}
	r := (num*2 + den) / (2 * den)
	if neg {
		return -r
	}
	return r
}
