package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

const StandardTol = 1.0e-9

func AssertVec3InDelta(t *testing.T, expected, actual Vec3, tol float64) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, tol, "x")
	assert.InDelta(t, expected.Y, actual.Y, tol, "y")
	assert.InDelta(t, expected.Z, actual.Z, tol, "z")
}

func toMgl(q Quaternion) mgl64.Quat {
	return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}
}

func TestQuaternionRotate(t *testing.T) {
	yaw90 := NewQuatFromAxisAngle(NewVec3Up(), DegToRad(90), true)

	// Counter-clockwise about +Y takes forward (-Z) to left (-X).
	AssertVec3InDelta(t, NewVec3Left(), yaw90.Rotate(NewVec3Forward()), StandardTol)
	AssertVec3InDelta(t, NewVec3Forward(), yaw90.Rotate(NewVec3Right()), StandardTol)

	pitch90 := NewQuatFromAxisAngle(NewVec3Right(), DegToRad(90), true)
	AssertVec3InDelta(t, NewVec3Up(), pitch90.Rotate(NewVec3Forward()), StandardTol)
}

func TestQuaternionMatchesMgl64(t *testing.T) {
	axis := NewVec3(1, 2, 3).Normalized()
	q := NewQuatFromAxisAngle(axis, 0.7, true)
	oracle := mgl64.QuatRotate(0.7, mgl64.Vec3{axis.X, axis.Y, axis.Z})

	v := NewVec3(4, -5, 6)
	expected := oracle.Rotate(mgl64.Vec3{v.X, v.Y, v.Z})
	AssertVec3InDelta(t, NewVec3(expected[0], expected[1], expected[2]), q.Rotate(v), StandardTol)

	other := NewQuatFromYawPitchRoll(0.3, -0.2, 1.1)
	product := toMgl(q).Mul(toMgl(other))
	ours := q.Mul(other)
	assert.InDelta(t, product.W, ours.W, StandardTol)
	assert.InDelta(t, product.V[0], ours.X, StandardTol)
	assert.InDelta(t, product.V[1], ours.Y, StandardTol)
	assert.InDelta(t, product.V[2], ours.Z, StandardTol)
}

func TestQuatFromBasisRoundTrip(t *testing.T) {
	for _, q := range []Quaternion{
		NewQuatIdentity(),
		NewQuatFromYawPitchRoll(0.3, 0.4, 0.5),
		NewQuatFromYawPitchRoll(3.0, -1.2, 0.1),
		NewQuatFromAxisAngle(NewVec3Right(), K_PI, true),
		NewQuatFromAxisAngle(NewVec3Up(), K_PI, true),
	} {
		x := q.Rotate(NewVec3Right())
		y := q.Rotate(NewVec3Up())
		z := q.Rotate(NewVec3Back())
		assert.True(t, q.Compare(NewQuatFromBasis(x, y, z), StandardTol), "%v", q)
	}
}

func TestTransformMulAndInverse(t *testing.T) {
	a := NewTransform(NewVec3(10, 0, -3), NewQuatFromYawPitchRoll(0.5, 0.1, 0))
	b := NewTransform(NewVec3(1, 2, 3), NewQuatFromYawPitchRoll(-1.0, 0.3, 0.2))
	p := NewVec3(7, 8, 9)

	AssertVec3InDelta(t, a.Xform(b.Xform(p)), a.Mul(b).Xform(p), StandardTol)
	AssertVec3InDelta(t, p, a.XformInv(a.Xform(p)), StandardTol)
	assert.True(t, a.Mul(a.Inverse()).IsIdentityApprox(StandardTol))
	assert.True(t, a.Inverse().Mul(a).IsIdentityApprox(StandardTol))
}

func TestTransformToMat4MatchesMgl64(t *testing.T) {
	q := NewQuatFromYawPitchRoll(0.5, -0.25, 0.75)
	tr := NewTransform(NewVec3(3, -4, 5), q)

	oracle := mgl64.Translate3D(3, -4, 5).Mul4(toMgl(q).Mat4())
	ours := tr.ToMat4()
	// Row-major row-vector storage matches mgl64's column-major column-vector layout.
	assert.True(t, mgl64.Mat4(ours.Data).ApproxEqualThreshold(oracle, StandardTol))

	p := NewVec3(1, 2, 3)
	AssertVec3InDelta(t, tr.Xform(p), p.Transform(ours), StandardTol)

	inv := ours.Inverse()
	assert.True(t, ours.Mul(inv).Compare(NewMat4Identity(), StandardTol))
	assert.True(t, mgl64.Mat4(inv.Data).ApproxEqualThreshold(oracle.Inv(), StandardTol))
	assert.True(t, tr.Inverse().ToMat4().Compare(inv, StandardTol))
}

func TestTransformBasisExtraction(t *testing.T) {
	tr := TransformFromYawPitchRoll(DegToRad(90), 0, 0)
	AssertVec3InDelta(t, NewVec3Left(), tr.Forward(), StandardTol)
	AssertVec3InDelta(t, NewVec3Up(), tr.Up(), StandardTol)
	AssertVec3InDelta(t, NewVec3Forward(), tr.Right(), StandardTol)

	mat := tr.ToMat4()
	AssertVec3InDelta(t, tr.Forward(), mat.Forward(), StandardTol)
	AssertVec3InDelta(t, tr.Right(), mat.Right(), StandardTol)
	AssertVec3InDelta(t, tr.Up(), mat.Up(), StandardTol)
}

func TestTransformTranslated(t *testing.T) {
	tr := TransformFromYawPitchRoll(DegToRad(90), 0, 0)
	AssertVec3InDelta(t, NewVec3(-2, 0, 0), tr.Translated(NewVec3(0, 0, -2)).Origin, StandardTol)
	AssertVec3InDelta(t, NewVec3(0, 0, -2), tr.TranslatedGlobal(NewVec3(0, 0, -2)).Origin, StandardTol)
}

func TestTransformInterpolateWith(t *testing.T) {
	from := TransformIdentity()
	to := NewTransform(NewVec3(10, 0, 0), NewQuatFromAxisAngle(NewVec3Up(), DegToRad(90), true))

	half := from.InterpolateWith(to, 0.5)
	AssertVec3InDelta(t, NewVec3(5, 0, 0), half.Origin, StandardTol)
	assert.True(t, half.Basis.Compare(NewQuatFromAxisAngle(NewVec3Up(), DegToRad(45), true), StandardTol))

	assert.True(t, from.InterpolateWith(to, 1).IsEqualApprox(to, StandardTol))
	assert.True(t, from.InterpolateWith(to, 0).IsEqualApprox(from, StandardTol))
}

func TestClampAndLerp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(3.0, -1.0, 1.0))
	assert.Equal(t, -1, Clamp(-7, -1, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0.0, 1.0))
	assert.InDelta(t, 7.5, Lerp(5.0, 10.0, 0.5), StandardTol)
}
