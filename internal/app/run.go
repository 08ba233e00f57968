package app

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/Simone-Scheuer/spiralizer-v2/internal/music"
	"github.com/Simone-Scheuer/spiralizer-v2/internal/reactive"
	"github.com/Simone-Scheuer/spiralizer-v2/internal/render"
	"github.com/Simone-Scheuer/spiralizer-v2/internal/spiral"
)

const analysisWindow = 1024

// curveOrder is the Tab-cycling order through every curve with its
// owning family.
var curveOrder = []struct {
	family spiral.Family
	curve  spiral.Curve
}{
	{spiral.FamilyClassic, spiral.CurveSpiral},
	{spiral.FamilyClassic, spiral.CurveSquare},
	{spiral.FamilyClassic, spiral.CurveStar},
	{spiral.FamilyClassic, spiral.CurveWobble},
	{spiral.FamilyPolar, spiral.CurveArchimedean},
	{spiral.FamilyPolar, spiral.CurveLogarithmic},
	{spiral.FamilyPolar, spiral.CurveRose},
	{spiral.FamilyPolar, spiral.CurveFermat},
	{spiral.FamilyParametric, spiral.CurveLissajous},
	{spiral.FamilyParametric, spiral.CurveHypotrochoid},
	{spiral.FamilyParametric, spiral.CurveButterfly},
}

func nextCurve(cfg *spiral.Config) {
	for i, c := range curveOrder {
		if c.family == cfg.Family && c.curve == cfg.Curve {
			n := curveOrder[(i+1)%len(curveOrder)]
			cfg.Family, cfg.Curve = n.family, n.curve
			return
		}
	}
	cfg.Family, cfg.Curve = curveOrder[0].family, curveOrder[0].curve
}

// defaultMappings routes bass onto stroke thickness-like pulse, mids
// onto hue motion, and treble onto wobble.
func defaultMappings() []reactive.Mapping {
	return []reactive.Mapping{
		{Source: reactive.BandBass, Target: spiral.FieldPulse, Mode: reactive.CombineAdd, Intensity: 1.5},
		{Source: reactive.BandMid, Target: spiral.FieldHueSpeed, Mode: reactive.CombineMultiply, Intensity: 2.0},
		{Source: reactive.BandTreble, Target: spiral.FieldWobble, Mode: reactive.CombineAdd, Intensity: 2.0},
	}
}

// RunDesktop owns the window, the GL context, and the frame loop.
// Audio failures degrade to a silent run; renderer failures are fatal.
func RunDesktop() error {
	runtime.LockOSThread()

	window, err := initWindow()
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}

	seed := uint64(time.Now().UnixNano())
	if s := os.Getenv("SPIRAL_SEED"); s != "" {
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			seed = v
		}
	}

	fbW, fbH := window.GetFramebufferSize()
	renderer, err := render.NewRenderer(fbW, fbH)
	if err != nil {
		return fmt.Errorf("renderer init: %w", err)
	}
	defer renderer.Destroy()

	bus := spiral.NewEventBus()
	anim := spiral.NewAnimator(spiral.DefaultConfig(), seed)
	defer anim.Dispose()

	var (
		sched    *music.Scheduler
		analyzer *reactive.Analyzer
		src      reactive.Source
	)
	eng, err := music.NewEngine(seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audio init failed (continuing without sound): %v\n", err)
	} else {
		defer eng.Dispose()
		derive := music.NewDerivation(spiral.NewRand(seed ^ 0x9e3779b97f4a7c15))
		sched = music.NewScheduler(eng, derive, spiral.NewRand(seed+1))
		defer sched.Stop()

		// The device needs a moment before playback can begin; retry on
		// a goroutine that shutdown cancels and waits out, so a slow
		// device can never start the scheduler after Stop/Dispose.
		audioDone := make(chan struct{})
		var audioWG sync.WaitGroup
		defer func() {
			close(audioDone)
			audioWG.Wait()
		}()
		audioWG.Add(1)
		go func() {
			defer audioWG.Done()
			for !eng.Start() {
				select {
				case <-audioDone:
					return
				case <-time.After(100 * time.Millisecond):
				}
			}
			select {
			case <-audioDone:
				return
			default:
			}
			sched.Start()
		}()
		analyzer = reactive.NewAnalyzer(analysisWindow)
		src = reactive.NewEngineSource(eng)
	}

	// SPIRAL_AUDIO_FILE switches analysis from the internal synth to a
	// WAV file, so the visuals can react to external music.
	if path := os.Getenv("SPIRAL_AUDIO_FILE"); path != "" {
		fsrc, err := reactive.OpenWAV(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "audio file ignored: %v\n", err)
		} else {
			defer fsrc.Close()
			if analyzer == nil {
				analyzer = reactive.NewAnalyzer(analysisWindow)
			}
			src = fsrc
		}
	}

	bus.Subscribe(spiral.EventBeat, func(e spiral.Event) {
		anim.Beat(e.Strength)
	})

	in := NewInput()
	samples := make([]float64, analysisWindow)
	mappings := defaultMappings()
	post := render.PostConfig{Trail: 0.92, Bloom: 0.6, Vignette: 0.35, Grain: 0.12}
	zoom := 1.0

	// Reactive analysis rides the scheduler tick so the override is
	// produced in the audio domain. The display loop only publishes
	// the base config snapshot the analysis reads.
	var baseMu sync.Mutex
	baseCfg := anim.Config()
	analyze := func(now float64) {
		n, _ := src.Fill(samples)
		if n != len(samples) {
			return
		}
		if analyzer.Process(samples, now) {
			bus.Emit(spiral.Event{Type: spiral.EventBeat, Strength: analyzer.BeatStrength()})
		}
		baseMu.Lock()
		base := baseCfg
		baseMu.Unlock()
		anim.SetOverride(reactive.Apply(mappings, analyzer.BandEnergy, base))
	}
	if analyzer != nil && sched != nil {
		sched.SetAnalysisHook(analyze)
	}

	anim.Play()
	for !window.ShouldClose() {
		glfw.PollEvents()

		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
		}
		if in.JustPressed(window, glfw.KeySpace) {
			if anim.State() == spiral.StateRunning {
				anim.Pause()
			} else {
				anim.Play()
			}
		}
		if in.JustPressed(window, glfw.KeyR) {
			anim.Restart()
			renderer.Clear()
			bus.Emit(spiral.Event{Type: spiral.EventRestart})
		}
		if in.JustPressed(window, glfw.KeyC) {
			anim.ClearCanvas()
			renderer.Clear()
			bus.Emit(spiral.Event{Type: spiral.EventCleared})
		}
		if in.JustPressed(window, glfw.KeyS) {
			name := fmt.Sprintf("spiral-%d.png", time.Now().Unix())
			if err := renderer.SavePNG(name); err != nil {
				fmt.Fprintf(os.Stderr, "snapshot failed: %v\n", err)
			}
		}
		if in.JustPressed(window, glfw.KeyTab) {
			cfg := anim.Config()
			nextCurve(&cfg)
			anim.SetConfig(cfg)
			anim.Restart()
			renderer.Clear()
		}
		cfg := anim.Config()
		if window.GetKey(glfw.KeyLeft) == glfw.Press {
			cfg.TurnAngle -= 0.1
			anim.SetConfig(cfg)
		}
		if window.GetKey(glfw.KeyRight) == glfw.Press {
			cfg.TurnAngle += 0.1
			anim.SetConfig(cfg)
		}
		if window.GetKey(glfw.KeyUp) == glfw.Press {
			zoom *= 1.01
		}
		if window.GetKey(glfw.KeyDown) == glfw.Press {
			zoom /= 1.01
		}

		if w, h := window.GetFramebufferSize(); w != fbW || h != fbH {
			fbW, fbH = w, h
			renderer.Resize(w, h, 1.0)
		}

		baseMu.Lock()
		baseCfg = anim.Config()
		baseMu.Unlock()
		// Without a scheduler (WAV analysis on a silent run) there is
		// no audio tick, so drive the analysis from here.
		if analyzer != nil && sched == nil {
			analyze(glfw.GetTime())
		}

		anim.Frame(time.Now())
		if sched != nil {
			c := anim.Config()
			sched.SetVisualState(music.VisualState{
				Family:    c.Family,
				Curve:     c.Curve,
				TurnAngle: c.TurnAngle,
				ParamA:    c.ParamA,
				ParamB:    c.ParamB,
			})
		}

		renderer.SubmitFrame(anim.Buffer(), anim.Alpha(), zoom)
		renderer.Present(post)
		window.SwapBuffers()
	}
	return nil
}
