package hardware

import "testing"

func TestOptimalParamsLowCore(t *testing.T) {
	p := Profile{CPUCores: 2, TotalMemoryBytes: 2 * 1024 * 1024 * 1024}
	params := p.OptimalParams()

	if params.Threads != 2 {
		t.Errorf("threads = %d, want 2", params.Threads)
	}
	if params.GPULayers != 0 {
		t.Errorf("gpu layers = %d, want 0", params.GPULayers)
	}
	if params.ContextSize != 1024 {
		t.Errorf("context size = %d, want 1024", params.ContextSize)
	}
}

func TestOptimalParamsHighCoreLargeMemory(t *testing.T) {
	p := Profile{CPUCores: 16, TotalMemoryBytes: 32 * 1024 * 1024 * 1024}
	params := p.OptimalParams()

	if params.Threads != 12 {
		t.Errorf("threads = %d, want capped at 12", params.Threads)
	}
	if params.ContextSize != 8192 {
		t.Errorf("context size = %d, want 8192", params.ContextSize)
	}
	if params.BatchSize != 1024 {
		t.Errorf("batch size = %d, want 1024", params.BatchSize)
	}
}

func TestDetectCaches(t *testing.T) {
	a := Detect()
	b := Detect()
	if a != b {
		t.Errorf("Detect should return a cached, stable profile")
	}
}
