package dispatch

// Method is the closed set of protocol methods the gateway understands.
type Method int

const (
	MethodUnknown Method = iota
	MethodInitialize
	MethodInitialized // notification, never answered
	MethodToolsList
	MethodToolsCall
)

var methodNames = map[string]Method{
	"initialize":                MethodInitialize,
	"notifications/initialized": MethodInitialized,
	"tools/list":                MethodToolsList,
	"tools/call":                MethodToolsCall,
}

// ParseMethod maps a wire method name to its Method, or MethodUnknown.
func ParseMethod(name string) Method {
	if m, ok := methodNames[name]; ok {
		return m
	}
	return MethodUnknown
}

func (m Method) String() string {
	for name, v := range methodNames {
		if v == m {
			return name
		}
	}
	return "unknown"
}

// IsNotification reports whether the method never produces a response.
func (m Method) IsNotification() bool {
	return m == MethodInitialized
}
