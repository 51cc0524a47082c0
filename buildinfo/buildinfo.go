//go:generate go run ./script/buildinfo-extractor.go .

package buildinfo

// VERSION_INFO is overwritten by the go:generate extractor with the short
// git revision of the build.
var VERSION_INFO = "dev"

func BuildInfo() string {
	return VERSION_INFO
}
