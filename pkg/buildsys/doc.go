// Package buildsys implements a small task runner on top of Starlark for the
// task declarations and mvdan.cc/sh for the shell runtime. The packaging
// pipelines construct their tasks programmatically while tasks.star files can
// declare additional project tasks with the same semantics.
package buildsys
