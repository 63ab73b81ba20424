package bootstrap

import "github.com/papaclick/papaclick-engine/internal/core/domain"

// NoopAuditMonitor satisfies the audit monitor port for binaries that never
// execute the write paths, such as the notification worker.
type NoopAuditMonitor struct{}

func (NoopAuditMonitor) AuditAppendFailed(domain.AuditAction) {}
