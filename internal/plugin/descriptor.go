// Package plugin implements the component registry: plugins enumerate
// component descriptors, operators whitelist plugins by name, and managers
// look up descriptors by kind to instantiate video streams, detectors and
// subscribers without depending on any concrete implementation.
package plugin

// ComponentKind classifies a descriptor along two independent axes: what the
// component does (video stream / detector / subscriber) and whether its
// methods block (sync) or suspend cooperatively (async). Managers query the
// registry for a specific kind when building a pipeline.
type ComponentKind int

const (
	KindAsyncVideoStream ComponentKind = iota
	KindSyncVideoStream
	KindAsyncDetector
	KindSyncDetector
	KindAsyncSubscriber
	KindSyncSubscriber
)

func (k ComponentKind) String() string {
	switch k {
	case KindAsyncVideoStream:
		return "async_video_stream"
	case KindSyncVideoStream:
		return "sync_video_stream"
	case KindAsyncDetector:
		return "async_detector"
	case KindSyncDetector:
		return "sync_detector"
	case KindAsyncSubscriber:
		return "async_subscriber"
	case KindSyncSubscriber:
		return "sync_subscriber"
	default:
		return "unknown"
	}
}

// IsVideoStream reports whether k names a video-stream component, sync or
// async.
func (k ComponentKind) IsVideoStream() bool {
	return k == KindAsyncVideoStream || k == KindSyncVideoStream
}

// IsDetector reports whether k names a detector component, sync or async.
func (k ComponentKind) IsDetector() bool {
	return k == KindAsyncDetector || k == KindSyncDetector
}

// IsSubscriber reports whether k names a subscriber component, sync or
// async.
func (k ComponentKind) IsSubscriber() bool {
	return k == KindAsyncSubscriber || k == KindSyncSubscriber
}

// IsSync reports whether k names a blocking (sync) component, as opposed to
// an async one driven directly on the orchestration plane.
func (k ComponentKind) IsSync() bool {
	switch k {
	case KindSyncVideoStream, KindSyncDetector, KindSyncSubscriber:
		return true
	default:
		return false
	}
}

// ArgType names the accepted shape of a component constructor argument.
type ArgType int

const (
	ArgString ArgType = iota
	ArgInt
	ArgFloat
	ArgBool
	ArgDuration
)

// ComponentArgDescriptor documents one named constructor argument so that an
// operator-facing form (or a config file) can be validated and rendered
// without the caller knowing the component's Go type.
type ComponentArgDescriptor struct {
	DisplayName string
	ArgName     string
	Type        ArgType
	Required    bool
	Default     any
	Choices     []any
	Validate    func(any) error
}

// ArgsTransform rewrites a raw args map before it reaches Constructor, e.g.
// to resolve a relative path or merge in computed defaults. Descriptors that
// don't need this leave it nil.
type ArgsTransform func(args map[string]any) (map[string]any, error)

// Constructor builds the concrete component instance described by the
// surrounding ComponentDescriptor. The returned value's real type is kind
// specific (videostream.Stream, detector.Detector, alert.Subscriber, ...)
// and is type-asserted by the caller, matching the registry's job of naming
// components generically while managers bind them to a concrete contract.
type Constructor func(args map[string]any) (any, error)

// ComponentDescriptor is what a plugin contributes to the registry: a name,
// a kind, an argument schema, and a way to build an instance.
type ComponentDescriptor struct {
	DisplayName   string
	Kind          ComponentKind
	Args          []ComponentArgDescriptor
	ArgsTransform ArgsTransform
	New           Constructor
}

// Build validates and transforms args, then invokes New.
func (d ComponentDescriptor) Build(args map[string]any) (any, error) {
	merged := map[string]any{}
	for k, v := range args {
		merged[k] = v
	}
	for _, a := range d.Args {
		if _, ok := merged[a.ArgName]; !ok {
			if a.Required {
				return nil, &ArgError{Descriptor: d.DisplayName, Arg: a.ArgName, Reason: "missing required argument"}
			}
			if a.Default != nil {
				merged[a.ArgName] = a.Default
			}
			continue
		}
		if a.Validate != nil {
			if err := a.Validate(merged[a.ArgName]); err != nil {
				return nil, &ArgError{Descriptor: d.DisplayName, Arg: a.ArgName, Reason: err.Error()}
			}
		}
	}
	if d.ArgsTransform != nil {
		transformed, err := d.ArgsTransform(merged)
		if err != nil {
			return nil, err
		}
		merged = transformed
	}
	return d.New(merged)
}

// ArgError reports a malformed or missing constructor argument.
type ArgError struct {
	Descriptor string
	Arg        string
	Reason     string
}

func (e *ArgError) Error() string {
	return "plugin: " + e.Descriptor + ": argument " + e.Arg + ": " + e.Reason
}
