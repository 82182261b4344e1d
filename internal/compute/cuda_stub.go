//go:build !cuda

package compute

type CUDABackend struct{}

func NewCUDABackend() *CUDABackend {
	return &CUDABackend{}
}

func (c *CUDABackend) Name() string            { return "cuda (not available)" }
func (c *CUDABackend) Available() bool         { return false }
func (c *CUDABackend) SharesDeviceState() bool { return false }
func (c *CUDABackend) Cleanup()                {}
