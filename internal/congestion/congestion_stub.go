//go:build !linux || 386
// +build !linux 386

package congestion

import (
	"os"

	"github.com/m-lab/tcp-info/inetdiag"
)

func set(*os.File, string) error {
	return ErrNoSupport
}

func get(*os.File) (string, error) {
	return "", ErrNoSupport
}

func getMaxBandwidthAndMinRTT(*os.File) (inetdiag.BBRInfo, error) {
	return inetdiag.BBRInfo{}, ErrNoSupport
}
