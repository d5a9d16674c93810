package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	DBType     string `env:"DBType" envDefault:"sqlite"`
	DSNURL     string `env:"DSN_URL" envDefault:""`
	DBUser     string `env:"DBUser" envDefault:""`
	DBPassword string `env:"DBPassword" envDefault:""`
	DBAddr     string `env:"DBAddr" envDefault:""`
	DBName     string `env:"DBName" envDefault:"stockroom"`
	DBPath     string `env:"DBPath" envDefault:"datas/stockroom.db"`
	DBPort     string `env:"DBPort" envDefault:"3306"`

	// 导出归档存储配置
	StorageType     string `env:"STORAGE_TYPE" envDefault:"local"`
	StorageLocalDir string `env:"STORAGE_LOCAL_DIR" envDefault:"datas/exports"`

	// S3 兼容存储配置（S3 / R2 / MinIO）
	StorageS3Region          string `env:"STORAGE_S3_REGION"`
	StorageS3Bucket          string `env:"STORAGE_S3_BUCKET"`
	StorageS3Prefix          string `env:"STORAGE_S3_PREFIX"`
	StorageS3Endpoint        string `env:"STORAGE_S3_ENDPOINT"`
	StorageS3AccessKeyID     string `env:"STORAGE_S3_ACCESS_KEY_ID"`
	StorageS3SecretAccessKey string `env:"STORAGE_S3_SECRET_ACCESS_KEY"`
	StorageS3SessionToken    string `env:"STORAGE_S3_SESSION_TOKEN"`
	StorageS3ForcePathStyle  bool   `env:"STORAGE_S3_FORCE_PATH_STYLE" envDefault:"false"`

	JWTSecret            string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTIssuer            string `env:"JWT_ISSUER" envDefault:"stockroom"`
	JWTExpirationMinutes int    `env:"JWT_EXPIRATION_MINUTES" envDefault:"1440"`

	// 超级管理员初始化账号（为空时跳过创建）
	SuperAdminEmail    string `env:"SUPER_ADMIN_EMAIL" envDefault:""`
	SuperAdminPassword string `env:"SUPER_ADMIN_PASSWORD" envDefault:""`
	SuperAdminName     string `env:"SUPER_ADMIN_NAME" envDefault:"Super Admin"`

	// 认证接口限流（每分钟请求数）
	AuthRatePerMinute  int `env:"AUTH_RATE_PER_MINUTE" envDefault:"10"`
	AuthRateBurst      int `env:"AUTH_RATE_BURST" envDefault:"5"`
	EmailRatePerMinute int `env:"EMAIL_RATE_PER_MINUTE" envDefault:"5"`
}

func ParseConfig() (Config, error) {
	var Conf Config
	err := env.Parse(&Conf)
	if err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	logrus.Debugf("%#v\n", Conf)
	return Conf, nil
}
