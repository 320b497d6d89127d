package sim_test

// Blank import triggers sim/kinematics's init(), which registers
// NewVectorizedKernelFunc. This allows package sim's internal test files to
// select the vectorized kernel without directly importing sim/kinematics
// (which would create an import cycle).
import _ "github.com/inference-sim/traffic-sim/sim/kinematics"
