package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
	"github.com/mozillazg/go-pinyin"
	"golang.org/x/crypto/bcrypt"
)

// 造测试数据用的姓名字库，不追求覆盖面，够用就行
var surnames = []string{
	"陈", "林", "黄", "郑", "吴", "许", "谢", "叶", "曾", "苏",
	"邓", "冯", "程", "韩", "唐", "曹", "袁", "潘", "蔡", "梁",
}

var givenNameChars = []string{
	"雅", "思", "慧", "倩", "颖", "琳", "瑶", "晴", "岚", "薇",
	"俊", "浩", "宇", "泽", "楠", "昊", "睿", "铭", "嘉", "晨",
	"海", "天", "文", "安", "若", "子", "心", "雨", "诗", "涵",
	"佳", "依", "可", "如", "亦", "之", "一", "小", "以", "乐",
}

func GenerateRandomChineseName() string {
	var b strings.Builder
	b.WriteString(surnames[rand.Intn(len(surnames))])
	for i := rand.Intn(2) + 1; i > 0; i-- {
		b.WriteString(givenNameChars[rand.Intn(len(givenNameChars))])
	}
	return b.String()
}

// GenerateUsernameFromChineseName 用姓的全拼加名的首字母拼出用户名，末尾跟两位数字防止重名
func GenerateUsernameFromChineseName(chineseName string) string {
	syllables := pinyin.LazyConvert(chineseName, nil)

	var b strings.Builder
	for i, syllable := range syllables {
		if i == 0 {
			b.WriteString(syllable)
			continue
		}
		b.WriteString(syllable[:1])
	}
	b.WriteString(fmt.Sprintf("%02d", rand.Intn(100)))

	return b.String()
}

// GenerateRandomNurse 生成一个随机的护士账号，方便在开发环境填充数据
func GenerateRandomNurse(password string, emailDomainName string) (*domain.User, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)

	return &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleNurse,
	}, nil
}

// 初始密码的字符表去掉了 0O、1lI 这类容易认错的字符
const passwordChars = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!#%*+-"

func GenerateRandomPassword(length int) string {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(passwordChars[rand.Intn(len(passwordChars))])
	}
	return b.String()
}
