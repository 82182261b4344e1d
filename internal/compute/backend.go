package compute

type Backend interface {
	Name() string
	Available() bool
	// SharesDeviceState reports whether state allocated on this backend can
	// be handed to worker goroutines and used there safely.
	SharesDeviceState() bool
	Cleanup()
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) {
	if activeBackend != nil {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

// AutoSelectBackend prefers CUDA when built in and available, else CPU.
func AutoSelectBackend() Backend {
	cuda := NewCUDABackend()
	if cuda.Available() {
		return cuda
	}
	return NewCPUBackend()
}
