package engine

import (
	"fmt"
	"path/filepath"
)

// chunkDir returns the hidden sibling directory that holds output's part
// files: <output_parent>/.<output_name>.chunks.
func chunkDir(output string) string {
	dir := filepath.Dir(output)
	name := filepath.Base(output)
	return filepath.Join(dir, "."+name+".chunks")
}

// partPath returns the part file path for chunk index idx of output.
func partPath(output string, idx int) string {
	return filepath.Join(chunkDir(output), fmt.Sprintf("chunk-%d.part", idx))
}

// mergeTmpPath returns the temp file merge writes to before the atomic
// rename onto output.
func mergeTmpPath(output string) string {
	return output + ".download_tmp"
}
