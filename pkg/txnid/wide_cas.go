package txnid

import "github.com/klauspost/cpuid/v2"

// probeWideCAS checks for CX16 (cmpxchg16b), the instruction a genuine
// double-word CAS over two adjacent TID cells would need on amd64.
func probeWideCAS() bool {
	return cpuid.CPU.Supports(cpuid.CX16)
}
