// Package spatialmath defines the spatial math used to move range points
// between reference frames.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// orthoEpsilon is the tolerance for deciding whether a matrix is a rotation.
const orthoEpsilon = 1e-8

// RotationMatrix is a 3x3 matrix in row major order.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates a rotation matrix from a slice of floats in row
// major order, rejecting matrices that are not orthonormal with determinant +1.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.Errorf("input slice has %d elements, need exactly 9", len(m))
	}
	mCopy := [9]float64{}
	copy(mCopy[:], m)
	rm := &RotationMatrix{mCopy}
	if err := rm.checkOrthonormal(); err != nil {
		return nil, err
	}
	return rm, nil
}

// NewZeroRotationMatrix returns the identity rotation.
func NewZeroRotationMatrix() *RotationMatrix {
	return &RotationMatrix{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

func (rm *RotationMatrix) checkOrthonormal() error {
	m := rm.Matrix()
	var prod mat.Dense
	prod.Mul(m, m.T())
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			want := 0.
			if r == c {
				want = 1.
			}
			if math.Abs(prod.At(r, c)-want) > orthoEpsilon {
				return errors.New("matrix is not orthonormal")
			}
		}
	}
	if math.Abs(mat.Det(m)-1) > orthoEpsilon {
		return errors.New("matrix determinant is not +1")
	}
	return nil
}

// At returns the value of the matrix at the given row and column.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Row returns the a vector with the given row of the matrix.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Mul returns the matrix product rm * v.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.mat[0]*v.X + rm.mat[1]*v.Y + rm.mat[2]*v.Z,
		Y: rm.mat[3]*v.X + rm.mat[4]*v.Y + rm.mat[5]*v.Z,
		Z: rm.mat[6]*v.X + rm.mat[7]*v.Y + rm.mat[8]*v.Z,
	}
}

// Transpose returns the transpose, which for a rotation is also its inverse.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	m := rm.mat
	return &RotationMatrix{[9]float64{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}}
}

// Matrix returns the rotation as a gonum matrix.
func (rm *RotationMatrix) Matrix() *mat.Dense {
	m := rm.mat
	return mat.NewDense(3, 3, []float64{
		m[0], m[1], m[2],
		m[3], m[4], m[5],
		m[6], m[7], m[8],
	})
}
