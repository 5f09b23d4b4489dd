package drive

import "math"

// Turn damping applied on top of the configured turn factor in smooth mode.
const smoothTurnDamping = 0.7

// Map converts a polar joystick sample into a motor command. angle is in
// radians (0 = right, π/2 = forward), magnitude in [0,1]. Out-of-range
// inputs are clamped, never rejected; Map is pure and cannot fail.
func Map(angle, magnitude float64, cfg Config) MotorCommand {
	if magnitude < 0 || math.IsNaN(magnitude) {
		magnitude = 0
	} else if magnitude > 1 {
		magnitude = 1
	}

	m := applyDeadZone(magnitude, cfg.DeadZone)
	if m == 0 {
		return MotorCommand{}
	}
	m = applyCurve(m, cfg.Curve)
	theta := normalizeAngle(angle)

	var left, right float64
	switch cfg.Mode {
	case ModeTank:
		left, right = tankMix(theta, m)
	case ModeCar:
		left, right = carMix(theta, m, cfg.TurnFactor)
	case ModeSmooth:
		left, right = arcadeMix(theta, m, cfg.TurnFactor*smoothTurnDamping)
	default:
		left, right = arcadeMix(theta, m, cfg.TurnFactor)
	}

	l := int16(left * float64(cfg.MaxDuty))
	r := int16(right * float64(cfg.MaxDuty))
	l = applyMinDuty(l, int16(cfg.MinDuty))
	r = applyMinDuty(r, int16(cfg.MinDuty))
	if cfg.InvertLeft {
		l = -l
	}
	if cfg.InvertRight {
		r = -r
	}
	return MotorCommand{Left: l, Right: r}
}

// Smooth blends a current command toward a target. alpha in [0,1]: 0 holds
// the current command, 1 jumps straight to the target.
func Smooth(current, target MotorCommand, alpha float64) MotorCommand {
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}
	return MotorCommand{
		Left:  int16(alpha*float64(target.Left) + (1-alpha)*float64(current.Left)),
		Right: int16(alpha*float64(target.Right) + (1-alpha)*float64(current.Right)),
	}
}

func applyDeadZone(magnitude, deadZone float64) float64 {
	if magnitude < deadZone || deadZone >= 1 {
		return 0
	}
	return (magnitude - deadZone) / (1 - deadZone)
}

func applyCurve(m float64, curve Curve) float64 {
	switch curve {
	case CurveQuadratic:
		return m * m
	case CurveCubic:
		return m * m * m
	case CurveSqrt:
		return math.Sqrt(m)
	default:
		return m
	}
}

func normalizeAngle(angle float64) float64 {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}
	a := math.Mod(angle, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// arcadeMix adds a scaled turn term to the forward component.
func arcadeMix(theta, m, turnFactor float64) (left, right float64) {
	x := m * math.Cos(theta)
	y := m * math.Sin(theta)
	turn := x * turnFactor
	return clampUnit(y + turn), clampUnit(y - turn)
}

// tankMix maps the two axes straight onto the two sides.
func tankMix(theta, m float64) (left, right float64) {
	x := m * math.Cos(theta)
	y := m * math.Sin(theta)
	return clampUnit(y + x), clampUnit(y - x)
}

// carMix slows the wheel on the inside of the turn: steering right reduces
// the right wheel, steering left the left wheel.
func carMix(theta, m, turnFactor float64) (left, right float64) {
	forward := math.Sin(theta)
	reduction := math.Abs(math.Cos(theta)) * turnFactor
	if math.Cos(theta) > 0 {
		left = forward
		right = forward * (1 - reduction)
	} else {
		left = forward * (1 - reduction)
		right = forward
	}
	return left * m, right * m
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// applyMinDuty raises a non-zero duty below the floor up to the floor,
// keeping its sign. Below the floor the motor cannot overcome static
// friction. Zero stays zero.
func applyMinDuty(duty, minDuty int16) int16 {
	switch {
	case duty == 0:
		return 0
	case duty > 0 && duty < minDuty:
		return minDuty
	case duty < 0 && duty > -minDuty:
		return -minDuty
	}
	return duty
}
