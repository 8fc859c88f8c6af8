// Package profile loads accelerator profiles from CUE.
//
// A profile directory holds one CUE package declaring profiles by name:
//
//	profile: npu: {
//		device:           "npu:0"
//		row_major_layout: "ROW_MAJOR_LAYOUT"
//		compute_ops: ["accel.add", "accel.matmul"]
//	}
//
// device and compute_ops are required. row_major_layout defaults to
// classify.DefaultRowMajor.
package profile
