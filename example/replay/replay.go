// Example replay runs the detection pipeline on a video or image with a
// replayed model output, showing how detections become world anchored
// markers as the simulated head turns
package main

import (
	"flag"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/swdee/go-holodetect"
	"github.com/swdee/go-holodetect/pipeline"
	"github.com/swdee/go-holodetect/postprocess"
	"github.com/swdee/go-holodetect/preprocess"
	"github.com/swdee/go-holodetect/render"
	"github.com/swdee/go-holodetect/settings"
	"github.com/swdee/go-holodetect/spatial"
	"github.com/swdee/go-holodetect/tracker"
)

func main() {

	// read in cli flags
	vidFile := flag.String("v", "", "Video file or camera device id to read frames from")
	imgFile := flag.String("i", "../data/bus.jpg", "Image file used when no video is given")
	labelFile := flag.String("l", "../data/coco_80_labels_list.txt", "Text file containing model labels")
	recFile := flag.String("r", "", "YAML file with the model output to replay")
	settingsFile := flag.String("c", "", "YAML settings file")
	envFile := flag.String("e", "", "Env file with HOLODETECT_* settings overrides")
	frames := flag.Int("n", 600, "Number of frames to run")
	fps := flag.Int("fps", 60, "Frame rate of the simulated display")
	turn := flag.Float64("turn", 20, "Head turn rate in degrees per second")
	passthrough := flag.Bool("passthrough", false, "Use the passthrough raycaster instead of the simulated room")
	show := flag.Bool("w", false, "Show debug windows")
	saveDir := flag.String("o", "", "Directory to save the last debug image and map to")
	logLevel := flag.String("log", "info", "Log level [trace|debug|info|warn|error]")

	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)

	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}

	logrus.SetLevel(level)
	log := logrus.WithField("app", "replay")
	holodetect.SetLogger(log)

	// settings: defaults, then file, then env overrides
	cfg := settings.Defaults()

	if *settingsFile != "" {
		if cfg, err = settings.LoadFile(*settingsFile); err != nil {
			log.Fatalf("Error loading settings: %v", err)
		}
	}

	if *envFile != "" {
		if cfg, err = settings.LoadEnv(cfg, *envFile); err != nil {
			log.Fatalf("Error loading env settings: %v", err)
		}
	}

	provider := settings.NewProvider(cfg)

	provider.Subscribe(func(c settings.Change) {
		log.WithField("fields", c.Fields).Info("Settings changed")
	})

	labels, err := holodetect.LoadLabels(*labelFile)

	if err != nil {
		log.Fatalf("Error loading model labels: %v", err)
	}

	rec := defaultRecording()

	if *recFile != "" {
		if rec, err = loadRecording(*recFile); err != nil {
			log.Fatal(err)
		}
	}

	output, err := rec.Tensor()

	if err != nil {
		log.Fatalf("Error creating output tensor: %v", err)
	}

	engine, err := holodetect.NewReplayEngine(rec.Layers, output, holodetect.WithFloat16Readback())

	if err != nil {
		log.Fatalf("Error creating engine: %v", err)
	}

	// frame source
	var source preprocess.FrameSource
	frameW, frameH := 896, 504

	if *vidFile != "" {
		var device interface{} = *vidFile

		if id, err := strconv.Atoi(*vidFile); err == nil {
			device = id
		}

		vs, err := preprocess.OpenVideoSource(device, true)

		if err != nil {
			log.Fatal(err)
		}

		frameW, frameH = vs.Resolution()
		source = vs

	} else {
		ss, err := preprocess.LoadStaticSource(*imgFile)

		if err != nil {
			log.Fatal(err)
		}

		source = ss
	}

	params := spatial.DefaultProjectorParams()
	params.CameraResolution = spatial.Resolution{Width: frameW, Height: frameH}

	pre := preprocess.NewPreprocessor(source, params.ModelResolution.Width,
		params.ModelResolution.Height)

	proc, err := postprocess.NewProcessor(postprocess.V10)

	if err != nil {
		log.Fatal(err)
	}

	var raycaster spatial.Raycaster = spatial.NewRoomRaycaster(6, 8, 3, -1.6)

	if *passthrough {
		raycaster = spatial.PassthroughRaycaster{}
	}

	projector := spatial.NewProjector(params, raycaster)
	camera := pipeline.NewStaticCamera(spatial.DefaultCamera(spatial.IdentityPose()))

	world := render.NewWorldDebug(projector, provider)
	defer world.Close()

	markers := tracker.NewMarkerRegistry()
	trk := tracker.New(tracker.DefaultParams(), projector, markers, labels,
		tracker.WithObserver(world))

	var window, mapWindow *gocv.Window

	if *show {
		window = gocv.NewWindow("debug image")
		defer window.Close()

		mapWindow = gocv.NewWindow("map")
		defer mapWindow.Close()
	}

	overlay := render.NewImageOverlay(pre, labels, provider, func(img gocv.Mat) {
		if window != nil {
			window.IMShow(img)
		}
	})
	defer overlay.Close()

	sched, err := pipeline.New(pipeline.Config{
		Engine:       engine,
		Preprocessor: pre,
		Processor:    proc,
		Tracker:      trk,
		Camera:       camera,
		Settings:     provider,
		Sinks:        []pipeline.DebugSink{overlay, world},
	})

	if err != nil {
		log.Fatalf("Error creating scheduler: %v", err)
	}

	mapImg := gocv.NewMatWithSize(480, 480, gocv.MatTypeCV8UC3)
	defer mapImg.Close()

	font := render.DefaultFont()
	interval := time.Second / time.Duration(*fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	yawStep := *turn * math.Pi / 180 / float64(*fps)
	start := time.Now()

	for frame := 0; frame < *frames; frame++ {
		<-ticker.C

		// turn the head about the vertical axis
		rot := r3.NewRotation(yawStep*float64(frame), r3.Vec{Y: 1})
		id := spatial.IdentityPose()
		camera.SetPose(spatial.CameraPose{
			Position: id.Position,
			Forward:  rot.Rotate(id.Forward),
			Right:    rot.Rotate(id.Right),
			Up:       id.Up,
		})

		if err := sched.Tick(); err != nil {
			log.WithError(err).Warn("Tick failed")
		}

		if mapWindow != nil {
			mapImg.SetTo(gocv.NewScalar(0, 0, 0, 0))
			render.TopDown(&mapImg, world.Scene(), markers.Markers(), 60, font)
			mapWindow.IMShow(mapImg)

			if mapWindow.WaitKey(1) == 27 {
				break
			}
		}
	}

	if err := sched.Close(); err != nil {
		log.WithError(err).Error("Error closing scheduler")
	}

	log.WithFields(logrus.Fields{
		"frames":   *frames,
		"passes":   engine.Submitted(),
		"duration": time.Since(start),
	}).Info("Replay finished")

	for _, obj := range trk.Objects() {
		log.WithFields(logrus.Fields{
			"class":     labels.Name(obj.Class),
			"position":  obj.Position,
			"timesSeen": obj.TimesSeen,
			"inView":    obj.InView,
		}).Info("Tracked object")
	}

	for _, mk := range markers.Markers() {
		log.WithFields(logrus.Fields{
			"handle":   mk.Handle,
			"text":     mk.Text,
			"position": mk.Position,
		}).Info("Marker")
	}

	if *saveDir != "" {
		mapImg.SetTo(gocv.NewScalar(0, 0, 0, 0))
		render.TopDown(&mapImg, world.Scene(), markers.Markers(), 60, font)

		if !gocv.IMWrite(filepath.Join(*saveDir, "map.jpg"), mapImg) {
			log.Error("Error saving map image")
		}

		if img := overlay.Image(); !img.Empty() {
			if !gocv.IMWrite(filepath.Join(*saveDir, "debug.jpg"), img) {
				log.Error("Error saving debug image")
			}
		}
	}
}
