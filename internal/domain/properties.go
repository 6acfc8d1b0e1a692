package domain

const (
	PropTimestamp      = "timestamp"
	PropPlatform       = "platform"
	PropAppVersion     = "app_version"
	PropDeviceBrand    = "device_brand"
	PropDeviceModel    = "device_model"
	PropOSVersion      = "os_version"
	PropScreenName     = "screen_name"
	PropPreviousScreen = "previous_screen"
)

// Properties is a set of event or profile properties. Values must be JSON
// serializable.
type Properties map[string]any

func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns a new set holding p overlaid with every layer in order, so a
// later layer wins on key collision. p itself is left untouched.
func (p Properties) Merge(layers ...Properties) Properties {
	out := p.Clone()
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}
