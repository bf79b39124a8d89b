// SPDX-License-Identifier: GPL-2.0-or-later

// Package vec holds the three-float vector shared by plane normals, vertices
// and bounding boxes.
package vec

// Vec3 is stored on disk as three little-endian float32 values.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns a + b
func Add(a, b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Scale returns v with every component multiplied by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func Dot(a, b Vec3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}
