package compute

type CPUBackend struct{}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{}
}

func (c *CPUBackend) Name() string            { return "cpu" }
func (c *CPUBackend) Available() bool         { return true }
func (c *CPUBackend) SharesDeviceState() bool { return true }
func (c *CPUBackend) Cleanup()                {}
