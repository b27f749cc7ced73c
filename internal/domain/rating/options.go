package rating

// Option applies a configuration option to the Updater.
type Option func(*Updater)

// WithBeta sets the performance deviation used in the pre-match estimate.
func WithBeta(beta float64) Option {
	return func(u *Updater) {
		if beta >= 0 {
			u.beta = beta
		}
	}
}

// WithTau sets the base sigma shrink rate.
func WithTau(tau float64) Option {
	return func(u *Updater) {
		if tau >= 0 {
			u.tau = tau
		}
	}
}

// WithK sets the rating step size.
func WithK(k float64) Option {
	return func(u *Updater) {
		if k > 0 {
			u.k = k
		}
	}
}

// WithLambdaUncertainty sets how much of the credit split follows
// inverse-variance weights rather than strength shares.
func WithLambdaUncertainty(lambda float64) Option {
	return func(u *Updater) {
		if lambda >= 0 && lambda <= 1 {
			u.lambda = lambda
		}
	}
}

// WithSoftmaxTemp sets the temperature of the strength-share softmax.
func WithSoftmaxTemp(temp float64) Option {
	return func(u *Updater) {
		if temp > 0 {
			u.softmaxTemp = temp
		}
	}
}

// WithMaxRating sets the rating ceiling.
func WithMaxRating(maxR float64) Option {
	return func(u *Updater) {
		if maxR > 0 {
			u.maxRating = maxR
		}
	}
}

// WithTaperExponents sets the gain and loss taper exponents.
func WithTaperExponents(gammaPos, gammaNeg float64) Option {
	return func(u *Updater) {
		if gammaPos >= 0 {
			u.gammaPos = gammaPos
		}
		if gammaNeg >= 0 {
			u.gammaNeg = gammaNeg
		}
	}
}

// WithMarginScale sets the points divisor of the margin multiplier.
func WithMarginScale(scale float64) Option {
	return func(u *Updater) {
		if scale > 0 {
			u.marginScale = scale
		}
	}
}

// WithShrinkFloor sets the lower bound of the sigma shrink multiplier.
func WithShrinkFloor(floor float64) Option {
	return func(u *Updater) {
		if floor > 0 && floor <= 1 {
			u.shrinkFloor = floor
		}
	}
}

// WithSigmaFloor sets the smallest sigma a player can reach.
func WithSigmaFloor(floor float64) Option {
	return func(u *Updater) {
		if floor > 0 {
			u.sigmaFloor = floor
		}
	}
}
