//go:build wasip1

package entrypoint

//go:wasmexport describe
func describe() uint64 {
	return uint64(DefaultAdapter().Describe())
}
