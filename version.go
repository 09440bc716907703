package device_isx3

// Version is set by the build with -ldflags "-X github.com/linjuya-lu/device-isx3-go.Version=..."
var Version string = "to be replaced by makefile"
