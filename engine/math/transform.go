package math

// TransformIdentity returns the transform that maps every point onto itself.
func TransformIdentity() Transform {
	return Transform{Origin: NewVec3Zero(), Basis: NewQuatIdentity()}
}

func TransformFromOrigin(origin Vec3) Transform {
	return Transform{Origin: origin, Basis: NewQuatIdentity()}
}

func TransformFromBasis(basis Quaternion) Transform {
	return Transform{Origin: NewVec3Zero(), Basis: basis.Normalize()}
}

func NewTransform(origin Vec3, basis Quaternion) Transform {
	return Transform{Origin: origin, Basis: basis.Normalize()}
}

// TransformFromYawPitchRoll builds a pure rotation; see NewQuatFromYawPitchRoll.
func TransformFromYawPitchRoll(yaw, pitch, roll float64) Transform {
	return TransformFromBasis(NewQuatFromYawPitchRoll(yaw, pitch, roll))
}

// Mul composes two transforms. The result applies other first, then t:
// t.Mul(other).Xform(p) == t.Xform(other.Xform(p)).
func (t Transform) Mul(other Transform) Transform {
	return Transform{
		Origin: t.Origin.Add(t.Basis.Rotate(other.Origin)),
		Basis:  t.Basis.Mul(other.Basis).Normalize(),
	}
}

// Inverse returns the transform mapping parent-space points back into t's frame.
func (t Transform) Inverse() Transform {
	inv := t.Basis.Inverse()
	return Transform{
		Origin: inv.Rotate(t.Origin).Negate(),
		Basis:  inv,
	}
}

// Xform maps a point from the local frame into the parent frame.
func (t Transform) Xform(point Vec3) Vec3 {
	return t.Basis.Rotate(point).Add(t.Origin)
}

// XformInv maps a point from the parent frame into the local frame.
func (t Transform) XformInv(point Vec3) Vec3 {
	return t.Basis.Inverse().Rotate(point.Sub(t.Origin))
}

// Translated moves the transform by offset expressed in its own basis.
func (t Transform) Translated(offset Vec3) Transform {
	return Transform{Origin: t.Origin.Add(t.Basis.Rotate(offset)), Basis: t.Basis}
}

// TranslatedGlobal moves the transform by offset expressed in the parent frame.
func (t Transform) TranslatedGlobal(offset Vec3) Transform {
	return Transform{Origin: t.Origin.Add(offset), Basis: t.Basis}
}

// RotatedLocal applies rotation about the transform's own axes.
func (t Transform) RotatedLocal(rotation Quaternion) Transform {
	return Transform{Origin: t.Origin, Basis: t.Basis.Mul(rotation).Normalize()}
}

// RotatedGlobal applies rotation about the parent's axes, keeping the origin in place.
func (t Transform) RotatedGlobal(rotation Quaternion) Transform {
	return Transform{Origin: t.Origin, Basis: rotation.Mul(t.Basis).Normalize()}
}

// WithOrigin returns a copy of t with a replaced origin.
func (t Transform) WithOrigin(origin Vec3) Transform {
	return Transform{Origin: origin, Basis: t.Basis}
}

// WithBasis returns a copy of t with a replaced basis.
func (t Transform) WithBasis(basis Quaternion) Transform {
	return Transform{Origin: t.Origin, Basis: basis.Normalize()}
}

// InterpolateWith linearly interpolates the origin and spherically
// interpolates the basis.
func (t Transform) InterpolateWith(other Transform, weight float64) Transform {
	return Transform{
		Origin: t.Origin.Lerp(other.Origin, weight),
		Basis:  t.Basis.Slerp(other.Basis, weight),
	}
}

func (t Transform) Right() Vec3 {
	return t.Basis.Rotate(NewVec3Right())
}

func (t Transform) Up() Vec3 {
	return t.Basis.Rotate(NewVec3Up())
}

func (t Transform) Forward() Vec3 {
	return t.Basis.Rotate(NewVec3Forward())
}

func (t Transform) Back() Vec3 {
	return t.Basis.Rotate(NewVec3Back())
}

// ToMat4 returns the row-vector matrix equivalent of t.
func (t Transform) ToMat4() Mat4 {
	return t.Basis.ToMat4().Mul(NewMat4Translation(t.Origin))
}

// IsEqualApprox compares origins component-wise and bases as rotations.
func (t Transform) IsEqualApprox(other Transform, tolerance float64) bool {
	return t.Origin.Compare(other.Origin, tolerance) && t.Basis.Compare(other.Basis, tolerance)
}

// IsIdentityApprox reports whether t is the identity within tolerance.
func (t Transform) IsIdentityApprox(tolerance float64) bool {
	return t.IsEqualApprox(TransformIdentity(), tolerance)
}
