package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	keytool "github.com/overnest/strongsalt-keytool-go"
	"github.com/overnest/strongsalt-keytool-go/config"
	. "github.com/overnest/strongsalt-keytool-go/interfaces"
	"github.com/overnest/strongsalt-keytool-go/logger"
	"github.com/overnest/strongsalt-keytool-go/pbe"
	"github.com/overnest/strongsalt-keytool-go/pipeline"
)

// Keys, signed data and signatures travel as URL-safe base64.
type keyData struct {
	Cipher         string `json:",omitempty"`
	KeySize        int    `json:",omitempty"`
	Curve          string `json:",omitempty"`
	Format         string `json:",omitempty"`
	EncryptionType string `json:",omitempty"`
	Password       string `json:",omitempty"`
	OutputPassword string `json:",omitempty"`
	PublicOnly     bool   `json:",omitempty"`
	Comment        string `json:",omitempty"`

	Key         string `json:",omitempty"`
	PrivateKey  string `json:",omitempty"`
	PublicKey   string `json:",omitempty"`
	KeyType     string `json:",omitempty"`
	Valid       bool   `json:",omitempty"`
	Fingerprint string `json:",omitempty"`
	Data        string `json:",omitempty"`
	Signature   string `json:",omitempty"`
}

type server struct {
	pipeline *pipeline.Pipeline
	log      *zap.Logger
}

func newServer(cfg *config.Config) *server {
	return &server{
		pipeline: pipeline.New(cfg),
		log:      logger.Named("rest"),
	}
}

// statusOf maps caller mistakes to 400 and everything else to 500.
func statusOf(err error) int {
	for _, target := range []error{
		keytool.ErrInvalidKey, keytool.ErrInvalidArgument, keytool.ErrKeyTypeMismatch,
		keytool.ErrUnsupportedKeyType, keytool.ErrUnsupportedCurve, keytool.ErrUnsupportedFormat,
		keytool.ErrUnsupportedSshKeyType, keytool.ErrAlreadyEncrypted, keytool.ErrEncryptionTypeRequired,
		keytool.ErrCommentTooLong,
	} {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	if errors.Is(err, keytool.ErrIncorrectPassword) {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func (s *server) fail(w http.ResponseWriter, op string, err error) {
	msg := fmt.Sprintf("%v: %v", op, err)
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("op", op), zap.Error(err))
	} else {
		s.log.Info("request rejected", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	}
	w.WriteHeader(status)
	w.Write([]byte(msg))
}

func (s *server) reply(w http.ResponseWriter, op string, resData *keyData) {
	resJson, err := json.Marshal(resData)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(resJson)
}

func decodeRequest(req *http.Request) (*keyData, error) {
	reqData := &keyData{}
	if err := json.NewDecoder(req.Body).Decode(reqData); err != nil {
		return nil, fmt.Errorf("%w: error decoding request json: %v", keytool.ErrInvalidArgument, err)
	}
	return reqData, nil
}

func decodeKey(field, value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: %v is required", keytool.ErrInvalidArgument, field)
	}
	b, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: error decoding base64 %v: %v", keytool.ErrInvalidArgument, field, err)
	}
	return b, nil
}

// decodeData allows empty data, unlike decodeKey.
func decodeData(value string) ([]byte, error) {
	b, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: error decoding base64 Data: %v", keytool.ErrInvalidArgument, err)
	}
	return b, nil
}

func encodeKey(b []byte) string {
	return base64.URLEncoding.EncodeToString(b)
}

func (s *server) createKeyPair(w http.ResponseWriter, req *http.Request) {
	const op = "KEYPAIR"
	reqData, err := decodeRequest(req)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	cipher := keytool.CipherTypeFromName(reqData.Cipher)
	if cipher == nil || cipher.Encrypted {
		s.fail(w, op, fmt.Errorf("%w: there is no key cipher named %q", keytool.ErrUnsupportedKeyType, reqData.Cipher))
		return
	}
	format, err := pipeline.FormatFromName(reqData.Format)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	encryptionType, err := pbe.EncryptionTypeFromName(reqData.EncryptionType)
	if err != nil {
		s.fail(w, op, err)
		return
	}

	params := KeyPairParams{KeySize: reqData.KeySize, Curve: reqData.Curve}
	private, public, err := s.pipeline.Create(cipher, params, format, encryptionType, reqData.Password, reqData.Comment)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.reply(w, op, &keyData{PrivateKey: encodeKey(private), PublicKey: encodeKey(public)})
}

// convert also serves /encrypt and /decrypt, which only add a precondition.
func (s *server) convert(op string, check func(*keyData) error) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		reqData, err := decodeRequest(req)
		if err != nil {
			s.fail(w, op, err)
			return
		}
		if check != nil {
			if err = check(reqData); err != nil {
				s.fail(w, op, err)
				return
			}
		}
		input, err := decodeKey("Key", reqData.Key)
		if err != nil {
			s.fail(w, op, err)
			return
		}
		format, err := pipeline.FormatFromName(reqData.Format)
		if err != nil {
			s.fail(w, op, err)
			return
		}
		encryptionType, err := pbe.EncryptionTypeFromName(reqData.EncryptionType)
		if err != nil {
			s.fail(w, op, err)
			return
		}

		res, err := s.pipeline.Run(&pipeline.Request{
			Input:          input,
			InputPassword:  reqData.Password,
			OutputFormat:   format,
			EncryptionType: encryptionType,
			OutputPassword: reqData.OutputPassword,
			PublicOnly:     reqData.PublicOnly,
			Comment:        reqData.Comment,
		})
		if err != nil {
			s.fail(w, op, err)
			return
		}
		s.reply(w, op, &keyData{
			Key:     encodeKey(res.Output),
			Cipher:  res.Key.Cipher.Name,
			KeyType: res.Key.Type.String(),
			KeySize: res.Key.KeySize,
			Curve:   res.Key.CurveName,
		})
	}
}

func requireEncryption(reqData *keyData) error {
	encryptionType, err := pbe.EncryptionTypeFromName(reqData.EncryptionType)
	if err != nil {
		return err
	}
	if encryptionType == pbe.EncryptionTypeNone {
		return keytool.ErrEncryptionTypeRequired
	}
	return nil
}

func requirePassword(reqData *keyData) error {
	if reqData.Password == "" {
		return fmt.Errorf("%w: Password is required", keytool.ErrInvalidArgument)
	}
	if reqData.EncryptionType != "" {
		return fmt.Errorf("%w: decrypt does not take an EncryptionType", keytool.ErrInvalidArgument)
	}
	return nil
}

func (s *server) verify(w http.ResponseWriter, req *http.Request) {
	const op = "VERIFY"
	reqData, err := decodeRequest(req)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	private, err := decodeKey("PrivateKey", reqData.PrivateKey)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	public, err := decodeKey("PublicKey", reqData.PublicKey)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	valid, err := s.pipeline.Verify(private, public, reqData.Password)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.reply(w, op, &keyData{Valid: valid})
}

func (s *server) fingerprint(w http.ResponseWriter, req *http.Request) {
	const op = "FINGERPRINT"
	reqData, err := decodeRequest(req)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	input, err := decodeKey("Key", reqData.Key)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	fp, err := s.pipeline.Fingerprint(input, reqData.Password)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.reply(w, op, &keyData{Fingerprint: fp})
}

func (s *server) sign(w http.ResponseWriter, req *http.Request) {
	const op = "SIGN"
	reqData, err := decodeRequest(req)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	key, err := decodeKey("Key", reqData.Key)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	data, err := decodeData(reqData.Data)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	sig, err := s.pipeline.Sign(key, reqData.Password, data)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.reply(w, op, &keyData{Signature: encodeKey(sig)})
}

func (s *server) verifySignature(w http.ResponseWriter, req *http.Request) {
	const op = "VERIFY SIGNATURE"
	reqData, err := decodeRequest(req)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	key, err := decodeKey("Key", reqData.Key)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	sig, err := decodeKey("Signature", reqData.Signature)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	data, err := decodeData(reqData.Data)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	valid, err := s.pipeline.VerifySignature(key, reqData.Password, data, sig)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.reply(w, op, &keyData{Valid: valid})
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next(w, req)
	}
}

func (s *server) initializeMux(mux *http.ServeMux) {
	mux.HandleFunc("/keypair", postOnly(s.createKeyPair))
	mux.HandleFunc("/convert", postOnly(s.convert("CONVERT", nil)))
	mux.HandleFunc("/encrypt", postOnly(s.convert("ENCRYPT", requireEncryption)))
	mux.HandleFunc("/decrypt", postOnly(s.convert("DECRYPT", requirePassword)))
	mux.HandleFunc("/verify", postOnly(s.verify))
	mux.HandleFunc("/fingerprint", postOnly(s.fingerprint))
	mux.HandleFunc("/sign", postOnly(s.sign))
	mux.HandleFunc("/verify-signature", postOnly(s.verifySignature))
}

func newHandler(cfg *config.Config) http.Handler {
	mux := http.NewServeMux()
	newServer(cfg).initializeMux(mux)
	return cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)
}

func main() {
	if envFile := os.Getenv("KEYTOOL_ENV_FILE"); envFile != "" {
		_ = godotenv.Load(envFile)
	} else {
		_ = godotenv.Load()
	}
	cfg, err := config.Load(os.Getenv("KEYTOOL_CONFIG"))
	if err != nil {
		logger.L().Fatal("config", zap.Error(err))
	}
	logger.Init(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level, ServiceName: "keytool-rest"})
	defer logger.Sync()

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: newHandler(cfg),
	}
	logger.L().Info("listening", zap.String("addr", cfg.Server.Addr))
	if err := server.ListenAndServe(); err != nil {
		logger.L().Error("Error starting server", zap.Error(err))
	}
}
