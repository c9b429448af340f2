package math

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float64
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float64
}

/** @brief A quaternion, used to represent rotational orientation. */
type Quaternion Vec4

/**
 * @brief a 4x4 matrix, typically used to represent object transformations.
 * Row-major with row vectors: a point is transformed as p * M and the
 * translation lives in Data[12], Data[13] and Data[14].
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float64
}

/**
 * @brief Represents the pose of a coordinate frame relative to its parent.
 * A point expressed in the frame maps into the parent as Basis*p + Origin.
 * Transforms are values; every operation returns a new one.
 */
type Transform struct {
	/** @brief The translation component, in parent units. */
	Origin Vec3
	/** @brief The rotation basis. Expected to be a unit quaternion. */
	Basis Quaternion
}
