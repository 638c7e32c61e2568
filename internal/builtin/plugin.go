package builtin

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sentineld/sentinel/internal/plugin"
	"github.com/sentineld/sentinel/internal/videostream"
)

// PluginName is the always-whitelisted pseudo-plugin name these reference
// components are registered under.
const PluginName = "sentinel-builtin"

// Register enumerates every builtin component with registry under
// PluginName and keeps it whitelisted, mirroring how an operator-supplied
// plugin would be registered but without the operator step — these
// components ship with the binary itself.
func Register(registry *plugin.Registry, logger *zap.Logger) {
	registry.Register(PluginName, func() (*plugin.Plugin, error) {
		return &plugin.Plugin{
			Name:        PluginName,
			Version:     "builtin",
			Description: "reference video-stream/detector/subscriber components shipped with sentinel",
			Components: []plugin.ComponentDescriptor{
				syntheticVideoStreamDescriptor(),
				httpVideoStreamDescriptor(),
				thresholdDetectorDescriptor(),
				remoteDetectorDescriptor(),
				logSubscriberDescriptor(logger),
				desktopNotifySubscriberDescriptor(),
				webSocketSubscriberDescriptor(),
			},
		}, nil
	})

	whitelist := registry.Whitelist()
	for _, n := range whitelist {
		if n == PluginName {
			return
		}
	}
	registry.SetWhitelist(append(whitelist, PluginName))
}

func syntheticVideoStreamDescriptor() plugin.ComponentDescriptor {
	return plugin.ComponentDescriptor{
		DisplayName: "synthetic-video-stream",
		Kind:        plugin.KindSyncVideoStream,
		Args: []plugin.ComponentArgDescriptor{
			{DisplayName: "Frame count", ArgName: "frame_count", Type: plugin.ArgInt, Default: 3},
			{DisplayName: "Frame width", ArgName: "width", Type: plugin.ArgInt, Default: 10},
			{DisplayName: "Frame height", ArgName: "height", Type: plugin.ArgInt, Default: 10},
			{DisplayName: "Interval", ArgName: "interval", Type: plugin.ArgDuration, Default: time.Second},
		},
		New: func(args map[string]any) (any, error) {
			count, _ := args["frame_count"].(int)
			width, _ := args["width"].(int)
			height, _ := args["height"].(int)
			interval, _ := args["interval"].(time.Duration)

			frames := make([]*videostream.Frame, count)
			for i := range frames {
				frames[i] = &videostream.Frame{
					Width:    width,
					Height:   height,
					Channels: 1,
					Pixels:   make([]byte, width*height),
				}
			}
			return NewSyntheticVideoStream(frames, interval), nil
		},
	}
}

func httpVideoStreamDescriptor() plugin.ComponentDescriptor {
	return plugin.ComponentDescriptor{
		DisplayName: "http-video-stream",
		Kind:        plugin.KindAsyncVideoStream,
		Args: []plugin.ComponentArgDescriptor{
			{DisplayName: "Source URL", ArgName: "url", Type: plugin.ArgString, Required: true},
		},
		New: func(args map[string]any) (any, error) {
			url, _ := args["url"].(string)
			return NewHTTPVideoStream(url, http.DefaultClient), nil
		},
	}
}

func thresholdDetectorDescriptor() plugin.ComponentDescriptor {
	return plugin.ComponentDescriptor{
		DisplayName: "threshold-detector",
		Kind:        plugin.KindSyncDetector,
		Args: []plugin.ComponentArgDescriptor{
			{DisplayName: "Brightness threshold", ArgName: "threshold", Type: plugin.ArgFloat, Default: 128.0},
			{DisplayName: "Category name", ArgName: "category", Type: plugin.ArgString, Default: "bright"},
		},
		New: func(args map[string]any) (any, error) {
			threshold, _ := args["threshold"].(float64)
			category, _ := args["category"].(string)
			return NewThresholdDetector(threshold, category), nil
		},
	}
}

func remoteDetectorDescriptor() plugin.ComponentDescriptor {
	return plugin.ComponentDescriptor{
		DisplayName: "remote-detector",
		Kind:        plugin.KindAsyncDetector,
		Args: []plugin.ComponentArgDescriptor{
			{DisplayName: "Detector URL", ArgName: "url", Type: plugin.ArgString, Required: true},
			{DisplayName: "Pixel dtype", ArgName: "dtype", Type: plugin.ArgString, Default: "uint8"},
		},
		New: func(args map[string]any) (any, error) {
			url, _ := args["url"].(string)
			dtype, _ := args["dtype"].(string)
			return NewRemoteDetector(url, dtype, http.DefaultClient), nil
		},
	}
}

func logSubscriberDescriptor(logger *zap.Logger) plugin.ComponentDescriptor {
	return plugin.ComponentDescriptor{
		DisplayName: "log-subscriber",
		Kind:        plugin.KindSyncSubscriber,
		New: func(args map[string]any) (any, error) {
			return NewLogSubscriber(logger), nil
		},
	}
}

func desktopNotifySubscriberDescriptor() plugin.ComponentDescriptor {
	return plugin.ComponentDescriptor{
		DisplayName: "desktop-notify-subscriber",
		Kind:        plugin.KindSyncSubscriber,
		New: func(args map[string]any) (any, error) {
			return NewDesktopNotifySubscriber(nil), nil
		},
	}
}

func webSocketSubscriberDescriptor() plugin.ComponentDescriptor {
	return plugin.ComponentDescriptor{
		DisplayName: "websocket-subscriber",
		Kind:        plugin.KindAsyncSubscriber,
		Args: []plugin.ComponentArgDescriptor{
			{DisplayName: "WebSocket URL", ArgName: "url", Type: plugin.ArgString, Required: true,
				Validate: func(v any) error {
					s, _ := v.(string)
					if s == "" {
						return fmt.Errorf("must not be empty")
					}
					return nil
				}},
		},
		New: func(args map[string]any) (any, error) {
			url, _ := args["url"].(string)
			return NewWebSocketSubscriber(url), nil
		},
	}
}
