package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptions_Init(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		firstArg string
		check    func(o *Options) bool
	}{
		{firstArg: "connect", check: func(o *Options) bool { return o.Connect != nil }},
		{firstArg: "simulate", check: func(o *Options) bool { return o.Simulate != nil }},
		{firstArg: "add", check: func(o *Options) bool { return o.Add != nil }},
		{firstArg: "init", check: func(o *Options) bool { return o.InitDB != nil }},
		{firstArg: "unknown", check: func(o *Options) bool {
			return o.Connect == nil && o.Simulate == nil && o.Add == nil && o.InitDB == nil
		}},
	}
	for _, testCase := range testCases {
		opts := &Options{}
		opts.Init(testCase.firstArg)
		assert.True(t, testCase.check(opts), testCase.firstArg)
	}
}

func TestConfigPathArg(t *testing.T) {
	t.Parallel()
	assert.EqualValues(t, "cfg.yaml", configPathArg([]string{"connect", "-f", "cfg.yaml", "-u", "me"}))
	assert.EqualValues(t, "cfg.yaml", configPathArg([]string{"--config", "cfg.yaml", "connect"}))
	assert.EqualValues(t, "cfg.yaml", configPathArg([]string{"connect", "--config=cfg.yaml"}))
	assert.EqualValues(t, "", configPathArg([]string{"connect", "-f"}))
	assert.EqualValues(t, "", configPathArg([]string{"connect", "-u", "me"}))
}
