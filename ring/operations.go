package ring

// Add evaluates p3 = p1 + p2 coefficient-wise. Addition commutes with
// the representation, so the three polynomials only need to share it.
func (r *Ring) Add(p1, p2, p3 Poly) {
	q := r.Modulus
	for i := 0; i < r.N; i++ {
		p3.Coeffs[i] = CRed(p1.Coeffs[i]+p2.Coeffs[i], q)
	}
}

// Sub evaluates p3 = p1 - p2 coefficient-wise.
func (r *Ring) Sub(p1, p2, p3 Poly) {
	q := r.Modulus
	for i := 0; i < r.N; i++ {
		p3.Coeffs[i] = CRed(p1.Coeffs[i]+q-p2.Coeffs[i], q)
	}
}

// Neg evaluates p2 = -p1 coefficient-wise.
func (r *Ring) Neg(p1, p2 Poly) {
	q := r.Modulus
	for i := 0; i < r.N; i++ {
		if p1.Coeffs[i] == 0 {
			p2.Coeffs[i] = 0
		} else {
			p2.Coeffs[i] = q - p1.Coeffs[i]
		}
	}
}

// MulCoeffs evaluates p3 = p1 * p2 coefficient-wise with a Barrett
// reduction. In the NTT representation this is the ring product.
func (r *Ring) MulCoeffs(p1, p2, p3 Poly) {
	q := r.Modulus
	u := r.BRedConstant
	for i := 0; i < r.N; i++ {
		p3.Coeffs[i] = BRed(p1.Coeffs[i], p2.Coeffs[i], q, u)
	}
}

// MulCoeffsThenAdd evaluates p3 = p3 + p1 * p2 coefficient-wise.
func (r *Ring) MulCoeffsThenAdd(p1, p2, p3 Poly) {
	q := r.Modulus
	u := r.BRedConstant
	for i := 0; i < r.N; i++ {
		p3.Coeffs[i] = CRed(p3.Coeffs[i]+BRed(p1.Coeffs[i], p2.Coeffs[i], q, u), q)
	}
}

// MulScalar evaluates p2 = p1 * scalar coefficient-wise.
func (r *Ring) MulScalar(p1 Poly, scalar uint64, p2 Poly) {
	q := r.Modulus
	u := r.BRedConstant
	scalar = BRedAdd(scalar, q, u)
	for i := 0; i < r.N; i++ {
		p2.Coeffs[i] = BRed(p1.Coeffs[i], scalar, q, u)
	}
}

// MulScalarThenAdd evaluates p2 = p2 + p1 * scalar coefficient-wise.
func (r *Ring) MulScalarThenAdd(p1 Poly, scalar uint64, p2 Poly) {
	q := r.Modulus
	u := r.BRedConstant
	scalar = BRedAdd(scalar, q, u)
	for i := 0; i < r.N; i++ {
		p2.Coeffs[i] = CRed(p2.Coeffs[i]+BRed(p1.Coeffs[i], scalar, q, u), q)
	}
}

// MulMonomial evaluates p2 = p1 * X^k in the coefficient representation,
// the nega-cyclic rotation of p1 by k slots. k must be in [0, N).
func (r *Ring) MulMonomial(p1 Poly, k int, p2 Poly) {
	q := r.Modulus
	N := r.N
	in := p1.Coeffs
	if &p1.Coeffs[0] == &p2.Coeffs[0] {
		// Aliasing would clobber coefficients not yet rotated.
		in = append([]uint64(nil), p1.Coeffs...)
	}
	for i := 0; i < N; i++ {
		c := in[i]
		if j := i + k; j < N {
			p2.Coeffs[j] = c
		} else if c == 0 {
			p2.Coeffs[j-N] = 0
		} else {
			p2.Coeffs[j-N] = q - c
		}
	}
}

// MulMonomialThenAdd evaluates p2 = p2 + p1 * X^k in the coefficient
// representation. p1 and p2 must not alias.
func (r *Ring) MulMonomialThenAdd(p1 Poly, k int, p2 Poly) {
	q := r.Modulus
	N := r.N
	for i := 0; i < N; i++ {
		c := p1.Coeffs[i]
		if j := i + k; j < N {
			p2.Coeffs[j] = CRed(p2.Coeffs[j]+c, q)
		} else if c != 0 {
			p2.Coeffs[j-N] = CRed(p2.Coeffs[j-N]+q-c, q)
		}
	}
}

// CenteredLift returns the signed representative of a in (-q/2, q/2].
func (r *Ring) CenteredLift(a uint64) int64 {
	if a > r.Modulus>>1 {
		return int64(a) - int64(r.Modulus)
	}
	return int64(a)
}

// InfNorm returns the infinity norm of p1: the maximum absolute value of
// the signed representatives of its coefficients in (-q/2, q/2]. The
// polynomial must be in the coefficient representation.
func (r *Ring) InfNorm(p1 Poly) (norm uint64) {
	half := r.Modulus >> 1
	for _, c := range p1.Coeffs {
		if c > half {
			c = r.Modulus - c
		}
		if c > norm {
			norm = c
		}
	}
	return
}
