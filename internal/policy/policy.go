// Package policy содержит правила доступа к ресурсам пользователей.
package policy

import "github.com/mmeshcher/guitarshop/internal/model"

// CanAccess разрешает доступ администратору или владельцу ресурса.
// Чтение и изменение проверяются одним и тем же правилом.
func CanAccess(p model.Principal, ownerID string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.SubjectID != "" && p.SubjectID == ownerID
}
