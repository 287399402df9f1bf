package config

type WorkerKeyStruct struct {
	PersistAttendanceAuditQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAttendanceAuditQueue: "persist_attendance_audit_queue",
}
