// Package engine – canned replies
//
// User-facing texts for the menu tree and the booking flow. Content is
// static by design; the engine only selects and formats.
package engine

import (
	"fmt"
	"strings"

	"github.com/arenalk/bookingbot/internal/domain"
)

const mainMenuText = `🏐 *CT LK FUTEVÔLEI* 🏐

Escolha uma opção:

1️⃣ Informações das Unidades
2️⃣ Horários das Aulas
3️⃣ Valores e Planos
4️⃣ Agendar Aula Experimental
5️⃣ Plataformas de Check-in
6️⃣ Localização das Quadras
7️⃣ Níveis das Turmas
8️⃣ Perguntas Frequentes
9️⃣ Falar com Atendente

Digite o *número* da opção desejada ou *MENU* para voltar aqui.`

const unitsMenuText = `🏢 *NOSSAS UNIDADES*

A - Recreio dos Bandeirantes
B - Bangu

Digite *A* ou *B* para mais informações.`

const recreioInfoText = `🏢 *UNIDADE RECREIO*

📍 *Endereço:*
Av. das Américas, 15500 - Recreio dos Bandeirantes

⏰ *Horários de Funcionamento:*
Segunda a Sexta: 6h às 22h
Sábado: 8h às 18h
Domingo: 8h às 16h

📞 *Contato:*
(21) 3325-4567

✨ *Diferenciais:*
• 4 quadras de areia
• Vestiário completo
• Lanchonete
• Estacionamento gratuito`

const banguInfoText = `🏢 *UNIDADE BANGU*

📍 *Endereço:*
Rua Coronel Tamarindo, 950 - Bangu

⏰ *Horários de Funcionamento:*
Segunda a Sexta: 6h às 22h
Sábado: 8h às 18h
Domingo: 8h às 16h

📞 *Contato:*
(21) 2401-8765

✨ *Diferenciais:*
• 3 quadras de areia
• Vestiário completo
• Lanchonete
• Fácil acesso de transporte público`

const schedulesText = `⏰ *HORÁRIOS DAS AULAS*

🏢 *RECREIO:*
🌅 Manhã: 7h, 8h, 9h, 10h
🌞 Tarde: 14h, 15h, 16h, 17h, 18h
🌙 Noite: 19h, 20h, 21h

🏢 *BANGU:*
🌅 Manhã: 7h, 8h, 9h, 10h
🌞 Tarde: 14h, 15h, 16h, 17h, 18h
🌙 Noite: 19h, 20h, 21h

📅 *Aulas Experimentais:*
• Recreio: 17:30, 18:30, 19:30
• Bangu: Todos os horários disponíveis

⚠️ Chegue 15 minutos antes, traga água e toalha.`

const pricesText = `💰 *VALORES E PLANOS*

🎯 *AULA AVULSA:*
• R$ 45,00 (1 aula)

📅 *PLANOS MENSAIS:*
• 4 aulas: R$ 160,00
• 8 aulas: R$ 300,00
• 12 aulas: R$ 420,00
• Ilimitado: R$ 580,00

🎁 *PROMOÇÕES:*
• Aula experimental: GRÁTIS
• Matricule um amigo: 20% desc. no primeiro mês
• Estudante: 15% desc. (com comprovante)

💳 Dinheiro, PIX ou Cartão.`

const checkinText = `💳 *PLATAFORMAS DE CHECK-IN*

🔸 *Gympass*
🔸 *TotalPass*
🔸 *Wellhub*

Apresente seu cartão na recepção para realizar o check-in.`

const locationsText = `📍 *LOCALIZAÇÃO DAS QUADRAS*

🏢 *RECREIO:*
Av. das Américas, 15500

🏢 *BANGU:*
Rua Coronel Tamarindo, 950`

const levelsText = `🏆 *NÍVEIS DAS TURMAS*

🥉 *INICIANTE:* primeiro contato, fundamentos básicos
🥈 *INTERMEDIÁRIO:* domínio dos fundamentos, táticas básicas
🥇 *AVANÇADO:* alto nível técnico, competições`

const faqText = `❓ *PERGUNTAS FREQUENTES*

*Preciso levar algum equipamento?*
Apenas roupa esportiva e água. Fornecemos a bola.

*Posso fazer aula experimental?*
Sim! É gratuita. Digite *4* no menu.

*Qual a idade mínima?*
12 anos, com autorização dos pais.

*Posso cancelar minha aula?*
Sim, até 2h antes do horário.`

const attendantText = `👨‍💼 *ATENDIMENTO HUMANO*

Você será atendido por nossa equipe em breve.

📞 *Ou ligue diretamente:*
• Recreio: (21) 3325-4567
• Bangu: (21) 2401-8765`

const experimentalIntroText = `🎯 *AULA EXPERIMENTAL GRATUITA*

Venha conhecer o futevôlei! Nossa aula experimental é 100% gratuita.

🏢 *Escolha a unidade:*
A - Recreio dos Bandeirantes
B - Bangu

Digite *A* para Recreio ou *B* para Bangu.`

const askDateText = `📅 *ESCOLHA A DATA*

Para qual data deseja agendar?

Digite no formato DD/MM/AAAA
Exemplo: 25/12/2026

Ou digite *HOJE* para hoje.`

const askNameText = `👤 *SEU NOME COMPLETO*

Por favor, digite seu nome completo:`

const askPhoneText = `📱 *SEU TELEFONE*

Digite seu telefone com DDD:
Exemplo: (21) 99999-9999`

const askCompanionText = `👥 *ACOMPANHANTE*

Vai levar acompanhante?

Digite *SIM* ou *NÃO*:`

const askCompanionNameText = `👤 *NOME DO ACOMPANHANTE*

Digite o nome completo do acompanhante:`

const notUnderstoodText = `Não entendi sua mensagem. 😅

Digite *MENU* para ver as opções disponíveis ou um número de 1 a 9.`

const invalidUnitText = `Por favor, digite *A* para Recreio ou *B* para Bangu.`

const invalidDateText = `Data inválida. Use DD/MM/AAAA ou digite *HOJE*.`

const invalidTimeText = `Horário inválido. Use o formato HH:MM.`

const shortNameText = `Nome muito curto. Digite seu nome completo.`

const shortCompanionNameText = `Nome muito curto. Digite o nome completo do acompanhante.`

const invalidPhoneText = `Telefone inválido. Use o formato (XX) XXXXX-XXXX.`

const invalidCompanionChoiceText = `Digite *SIM* ou *NÃO*.`

const slotFullText = `❌ Este horário já está lotado. Tente outro horário.

Digite *MENU* para voltar ao início.`

// RateLimitNotice is sent once per denied attempt when a sender exceeds the
// message window. Exposed for the router.
const RateLimitNotice = `⚠️ Muitas mensagens! Aguarde um momento antes de enviar outra.`

func unitDisplay(u domain.Unit) string {
	switch u {
	case domain.UnitRecreio:
		return "Recreio"
	case domain.UnitBangu:
		return "Bangu"
	default:
		return string(u)
	}
}

func noSlotsText(date string) string {
	return fmt.Sprintf(`❌ Não há horários disponíveis para %s na unidade Recreio.

Digite *MENU* para voltar ao início.`, formatDate(date))
}

func slotListText(slots []string) string {
	var b strings.Builder
	b.WriteString("⏰ *HORÁRIOS DISPONÍVEIS - RECREIO*\n\n")
	for i, s := range slots {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nDigite o *número* do horário desejado.")
	return b.String()
}

func invalidSlotIndexText(n int) string {
	return fmt.Sprintf("Opção inválida. Digite um número de 1 a %d.", n)
}

const askFreeTimeText = `⏰ *ESCOLHA O HORÁRIO - BANGU*

Digite o horário desejado no formato HH:MM
Exemplo: 18:30

Horários disponíveis:
7:00, 8:00, 9:00, 10:00, 14:00, 15:00, 16:00, 17:00, 18:00, 19:00, 20:00, 21:00`

func confirmationText(b domain.Booking) string {
	var sb strings.Builder
	sb.WriteString("✅ *AGENDAMENTO CONFIRMADO!*\n\n")
	fmt.Fprintf(&sb, "🏢 *Unidade:* %s\n", unitDisplay(b.Unit))
	fmt.Fprintf(&sb, "📅 *Data:* %s\n", formatDate(b.Date))
	fmt.Fprintf(&sb, "⏰ *Horário:* %s\n", b.Time)
	fmt.Fprintf(&sb, "👤 *Nome:* %s\n", b.Name)
	fmt.Fprintf(&sb, "📱 *Telefone:* %s\n", b.Phone)
	if b.Companion != "" {
		fmt.Fprintf(&sb, "👥 *Acompanhante:* %s\n", b.Companion)
	}
	sb.WriteString("\n🎯 *Sua aula experimental é GRATUITA!*\n\n")
	sb.WriteString("📋 *INSTRUÇÕES:*\n")
	sb.WriteString("• Chegue 15 minutos antes\n")
	sb.WriteString("• Traga roupa esportiva\n")
	sb.WriteString("• Leve água e toalha\n")
	sb.WriteString("• Não esqueça de um documento\n\n")
	sb.WriteString("💬 Digite *MENU* para outras opções.")
	return sb.String()
}
