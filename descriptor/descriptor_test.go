package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodPath(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "helloworld.Greeter.SayHello", "/helloworld.Greeter/SayHello"},
		{"nested package", "keyvaluestore.KeyValueStore.GetValues", "/keyvaluestore.KeyValueStore/GetValues"},
		{"no package", "Ping", "/Ping"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MethodPath(tc.in))
		})
	}
}

func TestValidateNotFound(t *testing.T) {
	p := NewPool()
	_, err := p.Validate("nope.Svc.Method", "nope.Req", "nope.Resp")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateTypeMismatch(t *testing.T) {
	p := NewPool()
	p.Register(Method{Name: "pkg.Svc.Method", RequestType: "pkg.Req", ResponseType: "pkg.Resp"})

	_, err := p.Validate("pkg.Svc.Method", "pkg.WrongReq", "pkg.Resp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request type mismatch")
}

func TestValidateOK(t *testing.T) {
	p := NewPool()
	p.Register(Method{Name: "pkg.Svc.Method", RequestType: "pkg.Req", ResponseType: "pkg.Resp"})

	m, err := p.Validate("pkg.Svc.Method", "pkg.Req", "pkg.Resp")
	require.NoError(t, err)
	assert.Equal(t, "pkg.Svc.Method", m.Name)
}

func TestLoadJSON(t *testing.T) {
	p := NewPool()
	err := p.LoadJSON([]byte(`{
		"helloworld.Greeter.SayHello": {
			"request": "helloworld.HelloRequest",
			"response": "helloworld.HelloReply",
			"clientStreaming": false,
			"serverStreaming": false
		}
	}`))
	require.NoError(t, err)

	m, ok := p.Lookup("helloworld.Greeter.SayHello")
	require.True(t, ok)
	assert.Equal(t, "helloworld.HelloRequest", m.RequestType)
	assert.Equal(t, "helloworld.HelloReply", m.ResponseType)
	assert.False(t, m.ClientStreaming)
}
