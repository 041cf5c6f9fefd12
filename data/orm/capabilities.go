package orm

// Capability 适配器可选能力。
// 超出能力的调用由适配器返回 ErrUnsupported，而非静默降级。
type Capability string

const (
	CapabilityBasicCRUD   Capability = "basic_crud"
	CapabilityQuery       Capability = "query"
	CapabilityTransaction Capability = "transaction"
	// CapabilityLastInsertID 插入后可回填自增主键
	CapabilityLastInsertID Capability = "last_insert_id"
)

// Capabilities 以集合形式表达适配器支持的能力
type Capabilities map[Capability]bool

// Supports 判断是否支持全部指定能力
func (c Capabilities) Supports(caps ...Capability) bool {
	for _, cap := range caps {
		if !c[cap] {
			return false
		}
	}
	return true
}

// NewCapabilities 构造能力集合
func NewCapabilities(caps ...Capability) Capabilities {
	set := make(Capabilities, len(caps))
	for _, cap := range caps {
		set[cap] = true
	}
	return set
}
