//go:build netlib && cgo
// +build netlib,cgo

package utils

import (
	"log"

	"gonum.org/v1/gonum/blas/blas64"
	netblas "gonum.org/v1/netlib/blas/netlib"
)

// Building with -tags netlib routes the gonum dense products (homogeneous transforms,
// vertex normal accumulation) through the system CBLAS.
func init() {
	blas64.Use(netblas.Implementation{})
	log.Println("Using netlib to accelerate BLAS")
}
