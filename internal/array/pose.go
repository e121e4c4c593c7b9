package array

// Pose is the robot's planar pose at measurement time: position in
// centimeters in the world frame plus yaw in degrees.
type Pose struct {
	X, Y   float64
	YawDeg float64
}

// LocalWall re-expresses a wall given by world parameters (orthogonal
// distance from the world origin in cm, normal azimuth in the world frame)
// as seen from p: distance from the robot and normal azimuth in the body
// frame. Evidence gathered at p can then be compared against a single
// world hypothesis.
func (p Pose) LocalWall(distanceCM, azimuthDeg float64) (float64, float64) {
	nx, ny := normal(azimuthDeg)
	return distanceCM - (p.X*nx + p.Y*ny), azimuthDeg - p.YawDeg
}

// GlobalWall is the inverse of LocalWall: it lifts a wall measured in the
// body frame of p to world parameters.
func (p Pose) GlobalWall(distanceCM, azimuthDeg float64) (float64, float64) {
	azGlob := azimuthDeg + p.YawDeg
	nx, ny := normal(azGlob)
	return distanceCM + p.X*nx + p.Y*ny, azGlob
}
