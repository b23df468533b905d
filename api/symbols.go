package api

import (
	"reflect"

	"github.com/google/uuid"
)

// Symbols are the host symbols visible to interpreted plugins, laid out the
// way yaegi extract lays them out. Keep the wrappers in sync with the
// interfaces in api.go.
var Symbols = map[string]map[string]reflect.Value{}

func init() {
	Symbols["github.com/chabad360/blocks/api/api"] = map[string]reflect.Value{
		// function, constant and variable definitions
		"ErrUnsupported": reflect.ValueOf(&ErrUnsupported).Elem(),
		"ImportPath":     reflect.ValueOf(ImportPath),

		// type definitions
		"DAOFactory": reflect.ValueOf((*DAOFactory)(nil)),
		"DAOProxy":   reflect.ValueOf((*DAOProxy)(nil)),
		"NoPaging":   reflect.ValueOf((*NoPaging)(nil)),
		"Plugin":     reflect.ValueOf((*Plugin)(nil)),

		// interface wrapper definitions
		"_DAOFactory": reflect.ValueOf((*_github_com_chabad360_blocks_api_DAOFactory)(nil)),
		"_DAOProxy":   reflect.ValueOf((*_github_com_chabad360_blocks_api_DAOProxy)(nil)),
		"_Plugin":     reflect.ValueOf((*_github_com_chabad360_blocks_api_Plugin)(nil)),
	}

	Symbols["github.com/google/uuid/uuid"] = map[string]reflect.Value{
		// function, constant and variable definitions
		"MustParse": reflect.ValueOf(uuid.MustParse),
		"New":       reflect.ValueOf(uuid.New),
		"NewString": reflect.ValueOf(uuid.NewString),
		"Nil":       reflect.ValueOf(&uuid.Nil).Elem(),
		"Parse":     reflect.ValueOf(uuid.Parse),

		// type definitions
		"UUID": reflect.ValueOf((*uuid.UUID)(nil)),
	}
}

// _github_com_chabad360_blocks_api_DAOFactory is an interface wrapper for DAOFactory type
type _github_com_chabad360_blocks_api_DAOFactory struct {
	IValue         interface{}
	WBuild         func() (DAOProxy, error)
	WSetNumPerPage func(n int) error
}

func (W _github_com_chabad360_blocks_api_DAOFactory) Build() (DAOProxy, error) {
	return W.WBuild()
}
func (W _github_com_chabad360_blocks_api_DAOFactory) SetNumPerPage(n int) error {
	return W.WSetNumPerPage(n)
}

// _github_com_chabad360_blocks_api_DAOProxy is an interface wrapper for DAOProxy type
type _github_com_chabad360_blocks_api_DAOProxy struct {
	IValue   interface{}
	WTaskDAO func() any
}

func (W _github_com_chabad360_blocks_api_DAOProxy) TaskDAO() any {
	return W.WTaskDAO()
}

// _github_com_chabad360_blocks_api_Plugin is an interface wrapper for Plugin type
type _github_com_chabad360_blocks_api_Plugin struct {
	IValue        interface{}
	WDAOFactory   func() DAOFactory
	WName         func() string
	WOnClose      func()
	WOnInitialize func()
	WOnLoad       func()
	WUUID         func() uuid.UUID
	WVersion      func() string
}

func (W _github_com_chabad360_blocks_api_Plugin) DAOFactory() DAOFactory {
	return W.WDAOFactory()
}
func (W _github_com_chabad360_blocks_api_Plugin) Name() string {
	return W.WName()
}
func (W _github_com_chabad360_blocks_api_Plugin) OnClose() {
	W.WOnClose()
}
func (W _github_com_chabad360_blocks_api_Plugin) OnInitialize() {
	W.WOnInitialize()
}
func (W _github_com_chabad360_blocks_api_Plugin) OnLoad() {
	W.WOnLoad()
}
func (W _github_com_chabad360_blocks_api_Plugin) UUID() uuid.UUID {
	return W.WUUID()
}
func (W _github_com_chabad360_blocks_api_Plugin) Version() string {
	return W.WVersion()
}
