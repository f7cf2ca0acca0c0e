package logging

import (
	"context"
)

const (
	EnvelopeIDKey   = "envelope_id"
	CaseRefKey      = "case_ref"
	JurisdictionKey = "jurisdiction"
	ServiceNameKey  = "service_name"
)

func WithEnvelopeID(ctx context.Context, envelopeID string) context.Context {
	return context.WithValue(ctx, EnvelopeIDKey, envelopeID)
}

func WithCaseRef(ctx context.Context, caseRef string) context.Context {
	return context.WithValue(ctx, CaseRefKey, caseRef)
}

func WithJurisdiction(ctx context.Context, jurisdiction string) context.Context {
	return context.WithValue(ctx, JurisdictionKey, jurisdiction)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func GetEnvelopeID(ctx context.Context) string {
	if envelopeID, ok := ctx.Value(EnvelopeIDKey).(string); ok {
		return envelopeID
	}
	return ""
}

func GetCaseRef(ctx context.Context) string {
	if caseRef, ok := ctx.Value(CaseRefKey).(string); ok {
		return caseRef
	}
	return ""
}

func GetJurisdiction(ctx context.Context) string {
	if jurisdiction, ok := ctx.Value(JurisdictionKey).(string); ok {
		return jurisdiction
	}
	return ""
}

func GetServiceName(ctx context.Context) string {
	if serviceName, ok := ctx.Value(ServiceNameKey).(string); ok {
		return serviceName
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 8)

	if envelopeID := GetEnvelopeID(ctx); envelopeID != "" {
		fields = append(fields, "envelope_id", envelopeID)
	}

	if caseRef := GetCaseRef(ctx); caseRef != "" {
		fields = append(fields, "case_ref", caseRef)
	}

	if jurisdiction := GetJurisdiction(ctx); jurisdiction != "" {
		fields = append(fields, "jurisdiction", jurisdiction)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, "service_name", serviceName)
	}

	return fields
}
