package access

// Роли пользователей, приходящие из доверенного контекста аутентификации.
// Сам движок пользователей не аутентифицирует.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleResponder  Role = "responder"
	RolePublic     Role = "public"
)

// Capability - отдельное право роли над операциями системы
type Capability string

const (
	CapViewAllIncidents   Capability = "incidents:view_all"
	CapCreateIncident     Capability = "incidents:create"
	CapUpdateIncident     Capability = "incidents:update"
	CapDeleteIncident     Capability = "incidents:delete"
	CapManageRegistry     Capability = "registry:manage"
	CapCreateNotification Capability = "notifications:create"
)

// Identity - проверенный контекст вызывающего. UserID == nil означает
// анонимную отправку через публичный API.
type Identity struct {
	Role   Role
	UserID *int64
	Name   string
}

// roleCapabilities - декларативная таблица прав. Правила видимости и мутаций
// описаны данными, а не условиями в обработчиках.
var roleCapabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapViewAllIncidents:   true,
		CapCreateIncident:     true,
		CapUpdateIncident:     true,
		CapDeleteIncident:     true,
		CapManageRegistry:     true,
		CapCreateNotification: true,
	},
	RoleDispatcher: {
		CapViewAllIncidents:   true,
		CapCreateIncident:     true,
		CapUpdateIncident:     true,
		CapManageRegistry:     true,
		CapCreateNotification: true,
	},
	RoleResponder: {
		CapViewAllIncidents: true,
		CapCreateIncident:   true,
		CapUpdateIncident:   true,
	},
	RolePublic: {
		CapCreateIncident: true,
	},
}

// KnownRole сообщает, описана ли роль в таблице прав
func KnownRole(role Role) bool {
	_, ok := roleCapabilities[role]
	return ok
}

// Has проверяет наличие права у роли
func Has(role Role, cap Capability) bool {
	return roleCapabilities[role][cap]
}

// CanViewIncident вычисляет видимость инцидента для вызывающего.
// Роли с правом view_all видят всё, public - только собственные записи.
func CanViewIncident(ident Identity, ownerUserID *int64) bool {
	if Has(ident.Role, CapViewAllIncidents) {
		return true
	}
	if ownerUserID == nil || ident.UserID == nil {
		return false
	}
	return *ownerUserID == *ident.UserID
}
