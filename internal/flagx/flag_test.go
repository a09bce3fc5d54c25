package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "short flag with separate value",
			args:    []string{"-c", "conf.json", "-a", "localhost"},
			allowed: []string{"-c", "--config"},
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "long flag with equals",
			args:    []string{"--config=alt.json", "-a", "localhost"},
			allowed: []string{"-c", "--config"},
			want:    []string{"--config=alt.json"},
		},
		{
			name:    "unknown flags ignored",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "flag without value at end is kept",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "next dash token is not a value",
			args:    []string{"-c", "-notvalue"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "several allowed flags keep their order",
			args:    []string{"-a", ":5050", "-catalog", "data/cheats.xml", "--other", "x"},
			allowed: []string{"-a", "-catalog"},
			want:    []string{"-a", ":5050", "-catalog", "data/cheats.xml"},
		},
		{
			name:    "empty args",
			args:    []string{},
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Run("short flag", func(t *testing.T) {
		t.Setenv(ConfigEnv, "")
		assert.Equal(t, "a.json", ConfigPath([]string{"-a", ":1", "-c", "a.json"}))
	})

	t.Run("long flag with equals", func(t *testing.T) {
		t.Setenv(ConfigEnv, "")
		assert.Equal(t, "b.json", ConfigPath([]string{"-config=b.json"}))
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv(ConfigEnv, "env.json")
		assert.Equal(t, "env.json", ConfigPath([]string{"-a", ":1"}))
	})

	t.Run("flag beats env", func(t *testing.T) {
		t.Setenv(ConfigEnv, "env.json")
		assert.Equal(t, "flag.json", ConfigPath([]string{"-c", "flag.json"}))
	})

	t.Run("nothing set", func(t *testing.T) {
		t.Setenv(ConfigEnv, "")
		assert.Equal(t, "", ConfigPath(nil))
	})
}
