// Package devconfig stores per-device settings and serves them to other
// adapters through the configuration/get, configuration/set and
// configuration/list procedures. Every successful set is announced on the
// configuration/changed topic.
package devconfig
