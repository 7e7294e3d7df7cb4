package rule

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleUnmarshalJSON(t *testing.T) {
	data := `{
		"host": "www.example.com",
		"path": "/api/test",
		"pathtype": "regexp",
		"prepath": "/api",
		"params": "a=1&b=2",
		"delay": 300,
		"status": 201,
		"responsetype": "mockjs",
		"response": {"code": 200, "msg": "hi"},
		"someUnknownField": true
	}`

	var r Rule
	require.NoError(t, json.Unmarshal([]byte(data), &r))

	assert.Equal(t, "www.example.com", r.Host)
	assert.Equal(t, "/api/api/test", r.EffectivePath())
	assert.True(t, r.IsRegexp())
	assert.True(t, r.IsMockjs())
	assert.Equal(t, 300, r.Delay)
	assert.Equal(t, 201, r.EffectiveStatus())
	assert.True(t, r.HasResponse())

	body, ok := r.Response.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hi", body["msg"])
}

func TestRuleDefaults(t *testing.T) {
	var r Rule
	require.NoError(t, json.Unmarshal([]byte(`{"path": "/x"}`), &r))

	assert.Equal(t, 200, r.EffectiveStatus())
	assert.False(t, r.IsRegexp())
	assert.False(t, r.IsMockjs())
	assert.False(t, r.HasResponse(), "absent response means pass-through")
}

func TestRuleStringResponse(t *testing.T) {
	var r Rule
	require.NoError(t, json.Unmarshal([]byte(`{"path": "/x", "response": "plain text"}`), &r))
	assert.Equal(t, "plain text", r.Response)
}

func TestValidateList(t *testing.T) {
	tests := []struct {
		name    string
		rules   []Rule
		wantErr string
	}{
		{
			name:  "valid literal and regexp",
			rules: []Rule{{Path: "/a"}, {Path: `/users/\d+`, PathType: PathTypeRegexp}},
		},
		{
			name:    "missing path",
			rules:   []Rule{{Host: "h"}},
			wantErr: "path is required",
		},
		{
			name:    "bad regexp",
			rules:   []Rule{{Path: "[unclosed", PathType: PathTypeRegexp}},
			wantErr: "invalid path regexp",
		},
		{
			name:    "bad pathtype",
			rules:   []Rule{{Path: "/a", PathType: "glob"}},
			wantErr: "unknown pathtype",
		},
		{
			name:    "bad responsetype",
			rules:   []Rule{{Path: "/a", ResponseType: "template"}},
			wantErr: "unknown responsetype",
		},
		{
			name:    "bad params",
			rules:   []Rule{{Path: "/a", Params: "a=%zz"}},
			wantErr: "invalid params",
		},
		{
			name:    "negative delay",
			rules:   []Rule{{Path: "/a", Delay: -1}},
			wantErr: "negative delay",
		},
		{
			name:    "status out of range",
			rules:   []Rule{{Path: "/a", Status: 99}},
			wantErr: "out of range",
		},
		{
			name:    "second rule invalid rejects the list",
			rules:   []Rule{{Path: "/ok"}, {Path: "[bad", PathType: PathTypeRegexp}},
			wantErr: "rule 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateList(tt.rules)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestStorePutGet(t *testing.T) {
	s := NewStore()

	assert.Nil(t, s.Get("missing"))

	first := []Rule{{Path: "/a"}}
	s.Put("c1", first)
	assert.Equal(t, first, s.Get("c1"))

	// Replace is atomic: the old snapshot stays valid for holders.
	snapshot := s.Get("c1")
	s.Put("c1", []Rule{{Path: "/b"}, {Path: "/c"}})
	assert.Equal(t, "/a", snapshot[0].Path)
	assert.Len(t, s.Get("c1"), 2)
}

func TestStoreDelete(t *testing.T) {
	s := NewStore()
	s.Put("c1", []Rule{{Path: "/a"}})

	assert.True(t, s.Delete("c1"))
	assert.False(t, s.Delete("c1"))
	assert.Nil(t, s.Get("c1"))
}

func TestStoreClientsAndCount(t *testing.T) {
	s := NewStore()
	s.Put("c1", []Rule{{Path: "/a"}})
	s.Put("c2", []Rule{{Path: "/b"}})

	assert.Equal(t, 2, s.Count())
	assert.ElementsMatch(t, []string{"c1", "c2"}, s.Clients())
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Put("c", []Rule{{Path: "/a"}, {Path: "/b"}})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rules := s.Get("c")
				// Readers observe either nil or a complete list.
				if rules != nil {
					assert.Len(t, rules, 2)
				}
			}
		}()
	}
	wg.Wait()
}
