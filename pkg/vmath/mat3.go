package vmath

// Mat3 is a 3x3 matrix in row-major order, used for inertia tensors and
// rotation matrices.
type Mat3 [9]float64

// IdentityMat3 returns the identity matrix.
func IdentityMat3() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// DiagonalMat3 returns a diagonal matrix with the given entries.
func DiagonalMat3(x, y, z float64) Mat3 {
	return Mat3{x, 0, 0, 0, y, 0, 0, 0, z}
}

// Mat3FromQuat builds the rotation matrix of a unit quaternion.
func Mat3FromQuat(q Quat) Mat3 {
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z
	return Mat3{
		1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy),
		2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx),
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy),
	}
}

// MulVec returns m * v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// Mul returns the matrix product m * o.
func (m Mat3) Mul(o Mat3) Mat3 {
	var r Mat3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			r[row*3+col] = m[row*3]*o[col] + m[row*3+1]*o[3+col] + m[row*3+2]*o[6+col]
		}
	}
	return r
}

// Transposed returns the transpose of m.
func (m Mat3) Transposed() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Inverted returns the inverse of m. A singular matrix inverts to the zero
// matrix, which callers treat as "infinite inertia".
func (m Mat3) Inverted() Mat3 {
	a := m[4]*m[8] - m[5]*m[7]
	b := m[5]*m[6] - m[3]*m[8]
	c := m[3]*m[7] - m[4]*m[6]
	det := m[0]*a + m[1]*b + m[2]*c
	if det > -Epsilon && det < Epsilon {
		return Mat3{}
	}
	inv := 1 / det
	return Mat3{
		a * inv, (m[2]*m[7] - m[1]*m[8]) * inv, (m[1]*m[5] - m[2]*m[4]) * inv,
		b * inv, (m[0]*m[8] - m[2]*m[6]) * inv, (m[2]*m[3] - m[0]*m[5]) * inv,
		c * inv, (m[1]*m[6] - m[0]*m[7]) * inv, (m[0]*m[4] - m[1]*m[3]) * inv,
	}
}
