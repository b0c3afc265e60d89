package sat

// Restarter coordinates forcing/blocking restarts from EMA trend
// signals plus a Luby fallback schedule.
//
// Grounded almost line-for-line on original_source/src/restart.rs's
// ProgressASG/ProgressLBD/LubySeries/RestartExecutor (see DESIGN.md
// Open Question #2/#3 for the policy choice).
type Restarter struct {
	// ProgressASG: EMA of trail length, used for block_restart.
	asgEMA       EMA
	asgLast      int
	asgBest      int
	asgThreshold float64 // Glucose-style blocking-restart factor R

	// ProgressLBD: fast EMA plus running sum/count, used for
	// force_restart's non-Luby branch.
	lbdEMA       EMA
	lbdSum       int
	lbdNum       int
	lbdThreshold float64 // Glucose-style forcing-restart factor K

	luby lubySeries

	afterRestart int
	restartStep  int

	useLuby bool
}

// NewRestarter returns a Restarter configured with the given EMA
// windows, blocking and forcing multipliers, restart step and Luby
// switch (DefaultConfig holds Glucose-style values for them).
func NewRestarter(asgWindow, lbdWindow int, blockingR, thresholdK float64, step int, useLuby bool) *Restarter {
	return &Restarter{
		asgEMA:       NewEMA(emaDecayForWindow(asgWindow)),
		asgThreshold: blockingR,
		lbdEMA:       NewEMA(emaDecayForWindow(lbdWindow)),
		lbdThreshold: thresholdK,
		luby:         newLubySeries(step),
		restartStep:  step,
		useLuby:      useLuby,
	}
}

// emaDecayForWindow converts a window size (number of samples) into the
// decay factor of an exponential moving average that approximates a
// simple average over that window.
func emaDecayForWindow(window int) float64 {
	if window <= 1 {
		return 0
	}
	return float64(window-1) / float64(window)
}

// UpdateASG feeds the current trail length into the ASG signal. Must be
// called exactly once per conflict or restart decision point, never
// twice, to avoid double counting.
func (r *Restarter) UpdateASG(trailLen int) {
	r.asgLast = trailLen
	r.asgEMA.Add(float64(trailLen))
	if trailLen > r.asgBest {
		r.asgBest = trailLen
	}
	r.afterRestart++
}

// UpdateLBD feeds a newly learnt clause's LBD into the LBD signal.
func (r *Restarter) UpdateLBD(lbd int) {
	r.lbdNum++
	r.lbdSum += lbd
	r.lbdEMA.Add(float64(lbd))
}

func (r *Restarter) asgActive() bool {
	if !r.asgEMA.init {
		return false
	}
	return r.asgThreshold*r.asgEMA.Val() < float64(r.asgLast)
}

func (r *Restarter) lbdActive() bool {
	if r.lbdNum == 0 {
		return false
	}
	return float64(r.lbdSum) < r.lbdEMA.Val()*float64(r.lbdNum)*r.lbdThreshold
}

// BlockRestart reports whether an imminent restart should be
// suppressed because the trail is unusually long relative to its
// recent average (the search is "on a roll"). Resets afterRestart.
func (r *Restarter) BlockRestart() bool {
	if r.lbdNum <= 100 || r.useLuby || r.afterRestart < r.restartStep {
		return false
	}
	if !r.asgActive() {
		return false
	}
	r.afterRestart = 0
	return true
}

// ForceRestart reports whether a restart should happen now, consulting
// the Luby schedule if active, otherwise the LBD trend test. Resets
// afterRestart.
func (r *Restarter) ForceRestart() bool {
	if r.useLuby {
		if r.luby.next() <= r.afterRestart {
			r.luby.advance()
			r.afterRestart = 0
			return true
		}
		return false
	}
	if r.afterRestart < r.restartStep || !r.lbdActive() {
		return false
	}
	r.afterRestart = 0
	return true
}

// lubySeries generates the Luby restart sequence: step * luby(i) for
// i = 1, 2, ..., where luby(i) is the standard 1,1,2,1,1,2,4,... series.
//
// Grounded on original_source/src/restart.rs's LubySeries::next_step.
type lubySeries struct {
	index       int
	restartInc  float64
	restartStep int
	cur         int
}

func newLubySeries(step int) lubySeries {
	l := lubySeries{restartInc: 2, restartStep: step}
	l.cur = l.compute()
	return l
}

func (l *lubySeries) next() int {
	return l.cur
}

func (l *lubySeries) advance() {
	l.index++
	l.cur = l.compute()
}

func (l *lubySeries) compute() int {
	if l.index == 0 {
		return l.restartStep
	}
	size, seq := 1, 0
	for size < l.index+1 {
		seq++
		size = 2*size + 1
	}
	x := l.index
	for size-1 != x {
		size = (size - 1) >> 1
		seq--
		x %= size
	}
	v := 1.0
	for i := 0; i < seq; i++ {
		v *= l.restartInc
	}
	return int(v * float64(l.restartStep))
}
