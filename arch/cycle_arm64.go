package arch

// cntvct returns the virtual counter CNTVCT_EL0.
func cntvct() uint64
