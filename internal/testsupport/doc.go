// Package testsupport builds temp-dir configs, layout stores and generated
// workbooks for tests in other packages.
package testsupport
