package vo

// ErrorReason 为客户端错误分类，作为 kratos errors 的 Reason 字段。
type ErrorReason string

const (
	ErrorReasonResourceNotFound     ErrorReason = "RESOURCE_NOT_FOUND"
	ErrorReasonResourceFetchFailed  ErrorReason = "RESOURCE_FETCH_FAILED"
	ErrorReasonUploadPolicyRejected ErrorReason = "UPLOAD_POLICY_REJECTED"
	ErrorReasonTransportFailed      ErrorReason = "TRANSPORT_FAILED"
	ErrorReasonInvalidArgument      ErrorReason = "INVALID_ARGUMENT"
)

// String 返回 Reason 字面值。
func (r ErrorReason) String() string {
	return string(r)
}
