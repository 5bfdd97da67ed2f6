// Package grpcapi описывает gRPC сервис классификатора heartrisk.v1.Classifier.
//
// Сообщения передаются как google.protobuf.Struct:
//
//	запрос:  {"features": [18 чисел в порядке features.Columns]}
//	ответ:   {"label": 0|1, "probability": p}
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Krimson/heart-risk/internal/features"
	"github.com/Krimson/heart-risk/internal/scoring"
)

const (
	ServiceName   = "heartrisk.v1.Classifier"
	PredictMethod = "/" + ServiceName + "/Predict"
)

// ErrBadMessage сообщение не соответствует ожидаемой форме.
var ErrBadMessage = errors.New("malformed classifier message")

// ClassifierService серверная сторона сервиса.
type ClassifierService interface {
	Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc описание сервиса для grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ClassifierService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Predict", Handler: predictHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "heartrisk/v1/classifier.proto",
}

func predictHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClassifierService).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PredictMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ClassifierService).Predict(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Register регистрирует сервис на сервере.
func Register(s grpc.ServiceRegistrar, srv ClassifierService) {
	s.RegisterService(&ServiceDesc, srv)
}

// ClassifierServer отдаёт любой scoring.Classifier по gRPC.
type ClassifierServer struct {
	classifier scoring.Classifier
	logger     *slog.Logger
}

// NewClassifierServer создаёт сервер. nil classifier: модель не загружена,
// каждый вызов отвечает codes.Unavailable.
func NewClassifierServer(c scoring.Classifier, logger *slog.Logger) *ClassifierServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifierServer{classifier: c, logger: logger}
}

// Predict обрабатывает один запрос.
func (s *ClassifierServer) Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.classifier == nil {
		return nil, status.Error(codes.Unavailable, scoring.ErrModelUnavailable.Error())
	}

	v, err := DecodeFeatures(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	p, err := predict(ctx, s.classifier, v)
	if err != nil {
		if ctx.Err() != nil {
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		s.logger.Error("prediction failed", slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, err.Error())
	}

	resp, err := EncodePrediction(p)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func predict(ctx context.Context, c scoring.Classifier, v features.Vector) (scoring.Prediction, error) {
	if pr, ok := c.(scoring.Predictor); ok {
		return pr.Predict(ctx, v)
	}
	label, err := c.PredictLabel(ctx, v)
	if err != nil {
		return scoring.Prediction{}, err
	}
	prob, err := c.PredictProbability(ctx, v)
	if err != nil {
		return scoring.Prediction{}, err
	}
	return scoring.Prediction{Label: label, Probability: prob}, nil
}

// EncodeFeatures строит запрос.
func EncodeFeatures(v features.Vector) (*structpb.Struct, error) {
	values := make([]any, features.Width)
	for i, x := range v {
		values[i] = x
	}
	return structpb.NewStruct(map[string]any{"features": values})
}

// DecodeFeatures разбирает запрос. Ширина должна быть ровно features.Width.
func DecodeFeatures(s *structpb.Struct) (features.Vector, error) {
	var v features.Vector

	field, ok := s.GetFields()["features"]
	if !ok {
		return v, fmt.Errorf("%w: missing features", ErrBadMessage)
	}
	list := field.GetListValue()
	if list == nil {
		return v, fmt.Errorf("%w: features must be a list", ErrBadMessage)
	}

	values := make([]float64, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return v, fmt.Errorf("%w: feature %d is not a number", ErrBadMessage, i)
		}
		values = append(values, n.NumberValue)
	}

	v, err := features.FromSlice(values)
	if err != nil {
		return v, fmt.Errorf("%w: got %d features, want %d: %v", ErrBadMessage, len(values), features.Width, err)
	}
	return v, nil
}

// EncodePrediction строит ответ.
func EncodePrediction(p scoring.Prediction) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"label":       p.Label,
		"probability": p.Probability,
	})
}

// DecodePrediction разбирает ответ.
func DecodePrediction(s *structpb.Struct) (scoring.Prediction, error) {
	fields := s.GetFields()

	label, ok := fields["label"].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return scoring.Prediction{}, fmt.Errorf("%w: missing label", ErrBadMessage)
	}
	if label.NumberValue != math.Trunc(label.NumberValue) {
		return scoring.Prediction{}, fmt.Errorf("%w: label %v is not an integer", ErrBadMessage, label.NumberValue)
	}

	prob, ok := fields["probability"].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return scoring.Prediction{}, fmt.Errorf("%w: missing probability", ErrBadMessage)
	}

	return scoring.Prediction{Label: int(label.NumberValue), Probability: prob.NumberValue}, nil
}
