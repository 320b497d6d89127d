// register.go wires the vectorized kernel into the sim package's registration
// variable (NewVectorizedKernelFunc). This init() runs when any package imports
// sim/kinematics, breaking the import cycle between sim/ (interface owner) and
// sim/kinematics/ (implementation). Production code imports sim/kinematics
// directly; test code in package sim uses kinematics_import_test.go for the
// blank import.
package kinematics

import "github.com/inference-sim/traffic-sim/sim"

func init() {
	sim.NewVectorizedKernelFunc = func(params sim.KinematicsParams) sim.KinematicsKernel {
		return NewVectorizedKernel(params)
	}
}
