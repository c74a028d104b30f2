package preflight

import (
	"os"
)

// checkWritable creates and removes a probe file; ACLs are not visible
// through mode bits on Windows.
func checkWritable(path string) error {
	f, err := os.CreateTemp(path, ".appdeck-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
