//go:build cthread_release

package cthread

const checked = false
